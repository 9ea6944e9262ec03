package commands

import (
	"context"
	"testing"

	"go.trai.ch/bake/internal/adapters/config"
	"go.trai.ch/bake/internal/adapters/logger"
	"go.trai.ch/bake/internal/adapters/telemetry"
	"go.trai.ch/bake/internal/app"
)

func newCLI() *CLI {
	return New(app.New(config.NewLoader(), logger.New(), telemetry.NewNoOpTracer()), logger.New())
}

func TestVersionCommand(t *testing.T) {
	c := newCLI()
	c.SetArgs([]string{"version"})
	if err := c.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestBuildWithoutArgsShowsHelp(t *testing.T) {
	c := newCLI()
	c.SetArgs([]string{"build", "--root", t.TempDir()})
	if err := c.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestParseContext(t *testing.T) {
	bctx, err := parseContext([]string{"{lang}=en", "mode=fast"})
	if err != nil {
		t.Fatal(err)
	}
	if bctx["{lang}"] != "en" || bctx["mode"] != "fast" {
		t.Errorf("context = %v", bctx)
	}

	if _, err := parseContext([]string{"novalue"}); err == nil {
		t.Error("want error for entry without =")
	}

	bctx, err = parseContext(nil)
	if err != nil || bctx != nil {
		t.Errorf("empty flags: %v, %v", bctx, err)
	}
}
