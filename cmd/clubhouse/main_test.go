package main

import (
	"testing"

	"github.com/clubhouse/clubhouse/internal/app"
	_ "github.com/clubhouse/clubhouse/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("expected test mode to be enabled by the testing package")
	}
	main()
}
