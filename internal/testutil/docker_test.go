package testutil

import (
	"strings"
	"testing"

	"github.com/jackzampolin/versemill/internal/pgdocker"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"TestStore", "teststore"},
		{"TestStore/sub_test case", "teststore-sub-testcase"},
		{"TestAVeryLongNameThatKeepsGoingAndGoing", "testaverylongnamethatkeepsgoin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeName(tt.name); got != tt.want {
				t.Errorf("sanitizeName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestUniqueContainerName(t *testing.T) {
	a, b := UniqueContainerName(t), UniqueContainerName(t)
	if a == b {
		t.Errorf("expected distinct names, got %q twice", a)
	}
	if !strings.HasPrefix(a, pgdocker.ContainerNamePrefix+"test-testuniquecontainername-") {
		t.Errorf("unexpected name %q", a)
	}
}

func TestTestFilters(t *testing.T) {
	tests := []struct {
		name     string
		testName string
		want     []string
	}{
		{"all tests", "", []string{pgdocker.Label + "=true", CleanupLabel}},
		{"one test", "TestStore", []string{pgdocker.Label + "=true", CleanupLabel + "=TestStore"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testFilters(tt.testName).Get("label")
			if len(got) != len(tt.want) {
				t.Fatalf("labels = %v, want %v", got, tt.want)
			}
			for _, w := range tt.want {
				found := false
				for _, g := range got {
					if g == w {
						found = true
					}
				}
				if !found {
					t.Errorf("labels = %v, missing %q", got, w)
				}
			}
		})
	}
}

func TestContainerLabels(t *testing.T) {
	labels := ContainerLabels(t)
	if labels[CleanupLabel] != t.Name() {
		t.Errorf("labels = %v, want %s=%s", labels, CleanupLabel, t.Name())
	}
}
