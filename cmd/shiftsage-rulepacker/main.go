// Command shiftsage-rulepacker validates and compiles a directory of
// per-position minimum-coverage fragment files into a single compiled
// ruleset JSON bundle the scheduling engine can be seeded from
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"shiftsage/internal/core/model"
	"shiftsage/internal/core/timeutil"
)

// coreFile is core.json: the bundle-wide settings every fragment shares
type coreFile struct {
	Version       int `json:"version"`
	BucketMinutes int `json:"bucketMinutes"`
}

// ruleEntry is one minimum-coverage rule inside a fragment
type ruleEntry struct {
	DateKeys  []string `json:"dateKeys" validate:"required,min=1,dive,required"`
	StartTime string   `json:"startTime" validate:"required"`
	EndTime   string   `json:"endTime" validate:"required"`
	MinCount  int      `json:"minCount" validate:"min=0"`
}

// fragmentFile is one per-position rules fragment under the rules root
type fragmentFile struct {
	PositionID string      `json:"positionId" validate:"required"`
	Rules      []ruleEntry `json:"rules" validate:"required,min=1,dive"`
}

// bundle is the compiled engine-ready ruleset, shaped like model.Ruleset
type bundle struct {
	Version               int                      `json:"version"`
	BucketMinutes         int                      `json:"bucketMinutes"`
	MinCoverageByPosition []model.MinCoverageRule  `json:"minCoverageByPosition"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("dateKey", func(fl validator.FieldLevel) bool {
		return timeutil.ValidDateKey(fl.Field().String())
	})
	return v
}

func readJSON[T any](path string, into *T) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, into); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func findFragmentFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Base(path) == "core.json" && filepath.Dir(path) == root {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// validateTimes checks what ruleEntry's validate tags (presence only) don't:
// that both HH:mm fields parse and that start < end
func validateTimes(r ruleEntry) error {
	start, err := timeutil.ParseHHmm(r.StartTime)
	if err != nil {
		return fmt.Errorf("invalid startTime %q: %w", r.StartTime, err)
	}
	end, err := timeutil.ParseHHmm(r.EndTime)
	if err != nil {
		return fmt.Errorf("invalid endTime %q: %w", r.EndTime, err)
	}
	if end <= start {
		return fmt.Errorf("endTime %q must be after startTime %q", r.EndTime, r.StartTime)
	}
	return nil
}

func assemble(root string, verbose bool) (bundle, error) {
	var core coreFile
	if err := readJSON(filepath.Join(root, "core.json"), &core); err != nil {
		return bundle{}, fmt.Errorf("read core.json: %w", err)
	}
	if core.Version != 1 {
		_, _ = fmt.Fprintf(os.Stderr, "warning: core.json version=%d (expected 1)\n", core.Version)
	}
	if !timeutil.ValidBucketMinutes(core.BucketMinutes) {
		return bundle{}, fmt.Errorf("core.json: bucketMinutes=%d is not one of the supported values", core.BucketMinutes)
	}

	fragPaths, err := findFragmentFiles(root)
	if err != nil {
		return bundle{}, err
	}
	if len(fragPaths) == 0 {
		return bundle{}, errors.New("no fragment files found under " + root)
	}

	validate := newValidator()

	type seenKey struct {
		positionID, dateKey, start, end string
	}
	seen := map[seenKey]bool{}
	var rules []model.MinCoverageRule

	for _, p := range fragPaths {
		var frag fragmentFile
		if err := readJSON(p, &frag); err != nil {
			return bundle{}, err
		}
		if err := validate.Struct(frag); err != nil {
			return bundle{}, fmt.Errorf("%s: %w", p, err)
		}
		for _, r := range frag.Rules {
			if err := validateTimes(r); err != nil {
				return bundle{}, fmt.Errorf("%s: position %s: %w", p, frag.PositionID, err)
			}
			kept := make([]string, 0, len(r.DateKeys))
			for _, dk := range r.DateKeys {
				if !timeutil.ValidDateKey(dk) {
					return bundle{}, fmt.Errorf("%s: position %s: invalid dateKey %q", p, frag.PositionID, dk)
				}
				key := seenKey{positionID: frag.PositionID, dateKey: dk, start: r.StartTime, end: r.EndTime}
				if seen[key] {
					_, _ = fmt.Fprintf(os.Stderr, "warning: duplicate rule for position=%s dateKey=%s %s-%s skipped\n",
						frag.PositionID, dk, r.StartTime, r.EndTime)
					continue
				}
				seen[key] = true
				kept = append(kept, dk)
			}
			if len(kept) == 0 {
				continue
			}
			rules = append(rules, model.MinCoverageRule{
				PositionID: frag.PositionID,
				DateKeys:   kept,
				StartTime:  r.StartTime,
				EndTime:    r.EndTime,
				MinCount:   r.MinCount,
			})
		}
		if verbose {
			_, _ = fmt.Fprintf(os.Stderr, "merged %s (position=%s, %d rule(s))\n", p, frag.PositionID, len(frag.Rules))
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		if rules[i].PositionID != rules[j].PositionID {
			return rules[i].PositionID < rules[j].PositionID
		}
		if rules[i].StartTime != rules[j].StartTime {
			return rules[i].StartTime < rules[j].StartTime
		}
		return rules[i].EndTime < rules[j].EndTime
	})

	return bundle{Version: 1, BucketMinutes: core.BucketMinutes, MinCoverageByPosition: rules}, nil
}

func main() {
	var root, out string
	var pretty, verbose bool

	cmd := &cobra.Command{
		Use:   "shiftsage-rulepacker",
		Short: "Compile a directory of coverage-rule fragments into one engine-ready bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := assemble(root, verbose)
			if err != nil {
				return err
			}

			var enc []byte
			if pretty {
				enc, err = json.MarshalIndent(b, "", "  ")
			} else {
				enc, err = json.Marshal(b)
			}
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := os.Stdout.Write(append(enc, '\n'))
				return err
			}

			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, enc, 0o644); err != nil {
				return err
			}
			if verbose {
				_, _ = fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", out, len(enc))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "./rules", "path to a directory of core.json + position fragment files")
	cmd.Flags().StringVar(&out, "out", "./ruleset.json", "output path, or '-' for stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "pretty-print JSON")
	cmd.Flags().BoolVar(&verbose, "v", false, "verbose logging")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
