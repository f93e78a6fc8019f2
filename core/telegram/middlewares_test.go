package telegram

import (
	"testing"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
)

func chainNames(mws []Middleware) []string {
	names := make([]string, len(mws))
	for i, m := range mws {
		names[i] = m.Name
	}
	return names
}

func TestDefaultMiddlewaresOrder(t *testing.T) {
	if got := chainNames(DefaultMiddlewares(nil, nil)); len(got) != 3 || got[0] != "recover" || got[2] != "metrics" {
		t.Fatalf("nil config chain = %v", got)
	}

	cfg := &coreconfig.Config{}
	cfg.RateLimit.IntervalMS = 700
	cfg.RateLimit.ExcludeUpdates = []string{" Callback "}
	got := chainNames(DefaultMiddlewares(cfg, nil))
	if len(got) != 4 || got[3] != "rate_limit" {
		t.Fatalf("chain = %v", got)
	}

	opts, ok := rateLimitFrom(cfg, nil)
	if !ok || opts.Interval.Milliseconds() != 700 {
		t.Fatalf("opts = %+v", opts)
	}
	if _, ok := opts.Exclude["callback"]; !ok {
		t.Fatalf("exclude = %v", opts.Exclude)
	}
}
