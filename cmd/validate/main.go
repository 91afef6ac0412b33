package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/game"
	"github.com/jwebster45206/relic-hunt/pkg/location"
	"github.com/jwebster45206/relic-hunt/pkg/story"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <locations.txt | url>\n", os.Args[0])
		os.Exit(1)
	}

	ref := os.Args[1]
	fmt.Printf("Validating %s...\n", ref)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	src := location.NewSource(ref, &http.Client{Timeout: 10 * time.Second})
	data, err := src.Read(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	validator := &LocationValidator{}
	if err := validator.validate(data); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Location file is valid!")
}

// storyLocations are the names the unlock rules and handlers refer to.
var storyLocations = []string{
	story.Library,
	story.Temple,
	story.GuardCamp,
	story.SecretRoom,
	story.TreasureCave,
	story.AncientWell,
}

type LocationValidator struct {
	errors []string
}

func (v *LocationValidator) validate(data string) error {
	v.errors = nil

	locs, err := location.Parse(data)
	if err != nil {
		return err
	}
	if len(locs) == 0 {
		return errors.New("no locations defined")
	}

	if err := game.Validate(locs); err != nil {
		v.addError("%v", err)
	}

	seen := make(map[string]bool)
	accessible := 0
	for i, loc := range locs {
		if loc.IsAccessible {
			accessible++
		}
		if strings.TrimSpace(loc.Name) == "" {
			v.addError("location %d has no name", i+1)
			continue
		}
		if seen[loc.Name] {
			v.addError("duplicate location '%s'", loc.Name)
		}
		seen[loc.Name] = true

		if strings.TrimSpace(loc.Description) == "" {
			v.addError("location '%s' has no description", loc.Name)
		}
		if strings.TrimSpace(loc.TaskHint) == "" {
			v.addError("location '%s' has no task hint", loc.Name)
		}
	}

	if accessible == 0 {
		v.addError("no location is accessible at the start")
	}
	for _, name := range storyLocations {
		if !seen[name] {
			v.addError("missing location '%s'", name)
		}
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *LocationValidator) addError(format string, args ...any) {
	v.errors = append(v.errors, "  - "+fmt.Sprintf(format, args...))
}
