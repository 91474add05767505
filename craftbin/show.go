package craftbin

import (
	"fmt"
	"io"
	"os"
	"strings"

	"shanhu.io/craft"
)

func printProps(w io.Writer, prefix string, p *craft.Properties) {
	for _, k := range p.Keys() {
		v, _, err := p.Lookup(k)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "    %s%s = %v\n", prefix, k, v)
	}
}

func printGraph(w io.Writer, g *craft.Graph) error {
	fmt.Fprintf(w, "variant %s\n", g.Variant())
	if main := g.Main(); main != "" {
		fmt.Fprintf(w, "main %s\n", main)
	}
	for _, t := range g.Targets() {
		fmt.Fprintf(w, "target %s\n", t.ID())
		for _, dep := range t.Dependencies() {
			vis := "private"
			if dep.Public() {
				vis = "public"
			}
			fmt.Fprintf(w, "    dep %s (%s)\n", dep.To().ID(), vis)
		}
		printProps(w, "", t.Private())
		printProps(w, "@", t.Public())

		for _, op := range t.Operators() {
			fmt.Fprintf(w, "  operator %s\n", op.Name())
			for _, b := range op.BuildSets() {
				cmds, err := b.Commands()
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "    build set %d\n", b.ID())
				for _, line := range cmds {
					fmt.Fprintf(w, "      $ %s\n", strings.Join(line, " "))
				}
			}
		}
	}
	return nil
}

func cmdShow(args []string) error {
	flags := cmdFlags.New()
	config := new(craft.Config)
	declareFlags(flags, config)
	args = flags.ParseArgs(args)

	g, err := loadGraph(config, args)
	if err != nil {
		return err
	}
	return printGraph(os.Stdout, g)
}

func cmdDot(args []string) error {
	flags := cmdFlags.New()
	config := new(craft.Config)
	declareFlags(flags, config)
	args = flags.ParseArgs(args)

	g, err := loadGraph(config, args)
	if err != nil {
		return err
	}
	return craft.WriteDot(os.Stdout, g)
}
