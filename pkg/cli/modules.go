/*
rftx
Copyright (C) 2025 The rftx Authors

This file is part of rftx.

rftx is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rftx is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rftx.  If not, see <http://www.gnu.org/licenses/>.
*/

package cli

import (
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	"github.com/rftx/rftx/pkg/config"
	"github.com/rftx/rftx/pkg/protocols"
	"github.com/rftx/rftx/pkg/protocols/borga"
	"github.com/rftx/rftx/pkg/protocols/dmv7008"
	"github.com/rftx/rftx/pkg/protocols/gt9000"
)

// module binds a protocol to its command line surface.
type module struct {
	usage   func(prog string) string
	parse   func(args []string) (protocols.Command, error)
	encoder func(cfg *config.Instance, clock clockwork.Clock, debug io.Writer) (protocols.Encoder, error)
}

var modules = map[protocols.Protocol]module{
	protocols.Borga: {
		usage: borga.Usage,
		parse: func(args []string) (protocols.Command, error) {
			return borga.ParseArgs(args)
		},
		encoder: func(_ *config.Instance, _ clockwork.Clock, debug io.Writer) (protocols.Encoder, error) {
			return borga.New(debug), nil
		},
	},
	protocols.DMV7008: {
		usage: dmv7008.Usage,
		parse: func(args []string) (protocols.Command, error) {
			return dmv7008.ParseArgs(args)
		},
		encoder: func(_ *config.Instance, _ clockwork.Clock, debug io.Writer) (protocols.Encoder, error) {
			return dmv7008.New(debug), nil
		},
	},
	protocols.GT9000: {
		usage: gt9000.Usage,
		parse: func(args []string) (protocols.Command, error) {
			return gt9000.ParseArgs(args)
		},
		encoder: func(cfg *config.Instance, clock clockwork.Clock, debug io.Writer) (protocols.Encoder, error) {
			variant, err := gt9000.LookupVariant(cfg.GT9000Variant())
			if err != nil {
				return nil, fmt.Errorf("gt9000 encoder: %w", err)
			}
			return gt9000.New(clock, variant, debug), nil
		},
	},
}

// writeUsage prints every module's usage line in protocol order.
func writeUsage(w io.Writer, prog string) {
	for _, p := range protocols.All {
		_, _ = fmt.Fprintln(w, modules[p].usage(prog))
	}
}
