package commands

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jakechorley/volunteer-match/pkg/core/model"
	"github.com/jakechorley/volunteer-match/pkg/db"
)

// FormatError renders caller-visible errors as "kind: message"
func FormatError(err error) string {
	if kind := model.KindOf(err); kind != "" {
		return fmt.Sprintf("%s: %s", kind, err.Error())
	}
	return err.Error()
}

func printApplication(w io.Writer, app *db.Application) {
	fmt.Fprintf(w, "Application: %s\n", app.ID)
	fmt.Fprintf(w, "  Opportunity: %s\n", app.OpportunityID)
	fmt.Fprintf(w, "  Volunteer:   %s\n", app.VolunteerID)
	fmt.Fprintf(w, "  Status:      %s\n", app.Status)
	if app.IsSystemMatched {
		fmt.Fprintf(w, "  Suggested:   yes\n")
	}
	if app.MatchScore != nil {
		fmt.Fprintf(w, "  Match score: %d\n", *app.MatchScore)
	}
	if app.VettingScore != nil {
		fmt.Fprintf(w, "  Vetting:     %d/10\n", *app.VettingScore)
	}
	if app.CommittedHours != nil {
		fmt.Fprintf(w, "  Hours:       %d\n", *app.CommittedHours)
	}
	if len(app.InfoRequestedFields) > 0 {
		fmt.Fprintf(w, "  Info asked:  %s\n", strings.Join(app.InfoRequestedFields, ", "))
	}
	if len(app.InfoResponse) > 0 {
		keys := make([]string, 0, len(app.InfoResponse))
		for k := range app.InfoResponse {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "    %s = %s\n", k, app.InfoResponse[k])
		}
	}
}

// parseInfoPairs turns field=value arguments into a map
func parseInfoPairs(args []string) (map[string]string, error) {
	info := make(map[string]string, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		info[field] = value
	}
	return info, nil
}

// optionalInt returns nil for an empty flag value
func optionalInt(name, value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number: %w", name, err)
	}
	return &n, nil
}

// optionalFloat returns nil for an empty flag value
func optionalFloat(name, value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number: %w", name, err)
	}
	return &f, nil
}
