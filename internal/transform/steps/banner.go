package steps

import (
	"fmt"
	"strings"

	"github.com/opmodel/graphpack/internal/transform"
)

func newBanner(opts Options) (transform.Step, error) {
	if opts.Banner == "" {
		return transform.Step{}, fmt.Errorf("banner text is empty")
	}
	banner := strings.TrimRight(opts.Banner, "\n")
	lines := strings.Count(banner, "\n") + 1

	return transform.Step{
		Name: "banner",
		Run: func(in transform.Input) (transform.Output, error) {
			return transform.Output{
				Source:   banner + "\n" + in.Source,
				Mappings: in.Mappings.Shift(lines),
			}, nil
		},
	}, nil
}
