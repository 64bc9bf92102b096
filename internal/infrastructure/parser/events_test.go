package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExtractVisitGreeceEvents(t *testing.T) {
	t.Parallel()

	html := `
	<div data-elementor-type="loop-item">
	  <a href="https://www.visitgreece.gr/events/athens-marathon/">Athens Marathon</a>
	  <img src="https://www.visitgreece.gr/marathon.jpg">
	  <div class="eael-entry-meta">
	    <span class="eael-entry-date">2025-11-09</span>
	    <span class="eael-entry-author">Athens</span>
	  </div>
	  <div class="eael-post-excerpt"><p>The authentic route.</p></div>
	</div>
	<div data-elementor-type="loop-item">
	  <a href="https://www.visitgreece.gr/events/untitled/"></a>
	</div>
	<div data-elementor-type="loop-item">
	  <a>Carnival</a>
	</div>`

	events := ExtractVisitGreeceEvents(mustDocument(t, html), testRunAt)
	require.Len(t, events, 1)

	ev := events[0]
	require.Equal(t, "VisitGreece", ev.Source)
	require.Equal(t, "Athens Marathon", ev.Title)
	require.Equal(t, "https://www.visitgreece.gr/events/athens-marathon/", ev.SourceURL)
	require.Equal(t, "Athens", ev.Location)
	require.Equal(t, "The authentic route.", ev.Description)
	require.Equal(t, "https://www.visitgreece.gr/marathon.jpg", ev.ImageURL)
	require.Equal(t, time.Date(2025, time.November, 9, 0, 0, 0, 0, time.UTC), ev.StartDate)
	require.Equal(t, testRunAt, ev.ScrapedAt)
}

func TestExtractCardEvents(t *testing.T) {
	t.Parallel()

	pigolampides := `
	<div class="event-card">
	  <a href="https://pigolampides.gr/events/puppet-show/"><img src="/puppet.jpg"></a>
	  <h3 class="event-title">Puppet Show</h3>
	  <p class="event-excerpt">For kids aged 4+</p>
	  <span class="event-date">20 December 2025</span>
	  <span class="event-location">Thessaloniki</span>
	</div>
	<div class="event-card">
	  <h3 class="event-title">No link</h3>
	</div>`

	events := ExtractPigolampidesEvents(mustDocument(t, pigolampides), testRunAt)
	require.Len(t, events, 1)
	require.Equal(t, "Pigolampides", events[0].Source)
	require.Equal(t, "Puppet Show", events[0].Title)
	require.Equal(t, "Thessaloniki", events[0].Location)
	require.Equal(t, time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC), events[0].StartDate)

	kalamata := `
	<div class="event-item">
	  <a href="https://events.kalamata.gr/e/dance">more</a>
	  <span class="event-title">Dance Festival</span>
	  <span class="event-date">to be announced</span>
	</div>`

	events = ExtractKalamataEvents(mustDocument(t, kalamata), testRunAt)
	require.Len(t, events, 1)
	require.Equal(t, "Dance Festival", events[0].Title)
	require.Equal(t, testRunAt, events[0].StartDate, "unparseable date falls back to the run timestamp")
	require.Empty(t, events[0].Location)
}

func TestExtractMoreComEventsAbsolutizesLinks(t *testing.T) {
	t.Parallel()

	html := `
	<div class="event-card">
	  <a href="/tickets/theater/little-prince/">The Little Prince</a>
	  <p class="event-description">Family theater</p>
	  <span class="event-date">2025-12-27T18:00:00Z</span>
	  <span class="event-location">Athens Concert Hall</span>
	</div>
	<div class="event-card">
	  <a href="https://www.more.com/tickets/music/nutcracker/">Nutcracker</a>
	</div>`

	events := ExtractMoreComEvents(mustDocument(t, html), testRunAt)
	require.Len(t, events, 2)
	require.Equal(t, "https://www.more.com/tickets/theater/little-prince/", events[0].SourceURL)
	require.Equal(t, time.Date(2025, time.December, 27, 18, 0, 0, 0, time.UTC), events[0].StartDate)
	require.Equal(t, "https://www.more.com/tickets/music/nutcracker/", events[1].SourceURL)
	require.Equal(t, testRunAt, events[1].StartDate)
}

func TestExtractOlakalaEvents(t *testing.T) {
	t.Parallel()

	html := `
	<article class="tribe-events-calendar-list__event">
	  <time datetime="2025-12-21">Dec 21</time>
	  <h3><a class="tribe-events-calendar-list__event-title-link" href="https://www.olakala.gr/event/xmas-village/">Christmas Village</a></h3>
	  <address class="tribe-events-calendar-list__event-venue">Trikala</address>
	  <div class="tribe-events-calendar-list__event-description"><p>Mill of the Elves</p></div>
	</article>
	<article class="tribe-events-calendar-list__event">
	  <h3><a class="tribe-events-calendar-list__event-title-link">No href</a></h3>
	</article>`

	events := ExtractOlakalaEvents(mustDocument(t, html), testRunAt)
	require.Len(t, events, 1)
	require.Equal(t, "Olakala", events[0].Source)
	require.Equal(t, "Christmas Village", events[0].Title)
	require.Equal(t, "Trikala", events[0].Location)
	require.Equal(t, "Mill of the Elves", events[0].Description)
	require.Equal(t, time.Date(2025, time.December, 21, 0, 0, 0, 0, time.UTC), events[0].StartDate)
}
