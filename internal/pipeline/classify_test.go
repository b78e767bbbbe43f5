package pipeline

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Kind
	}{
		{name: "ics extension", url: "https://example.com/cal.ics", want: KindCalendar},
		{name: "ics with query", url: "https://example.com/export.ics?key=abc", want: KindCalendar},
		{name: "xml extension", url: "https://example.com/events.xml", want: KindFeed},
		{name: "rss token", url: "https://example.com/rss", want: KindFeed},
		{name: "atom token", url: "https://example.com/atom/all", want: KindFeed},
		{name: "feed token", url: "https://example.com/blog/feed", want: KindFeed},
		{name: "plain page", url: "https://example.com/agenda", want: KindPage},
		{name: "ics token mid-path stays page", url: "https://example.com/tropics/list", want: KindPage},
		{name: "malformed url", url: "http://example.com/%zz", want: KindPage},
		{name: "empty", url: "", want: KindPage},
		{name: "uppercase extension", url: "https://example.com/CAL.ICS", want: KindCalendar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.url); got != tt.want {
				t.Fatalf("Classify(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
