package craftbin

import (
	"log"

	"shanhu.io/craft"
	"shanhu.io/misc/errcode"
	"shanhu.io/misc/flagutil"
)

var cmdFlags = flagutil.NewFactory("craft")

func declareFlags(flags *flagutil.FlagSet, c *craft.Config) {
	flags.StringVar(&c.Root, "root", "build", "build root directory")
	flags.StringVar(&c.Variant, "variant", "debug", "build variant")
}

// loadGraph loads the saved graph of the configured variant. args are
// option overrides in the form of "scope:prop=value".
func loadGraph(c *craft.Config, args []string) (*craft.Graph, error) {
	if err := c.SetOptions(args); err != nil {
		return nil, err
	}
	g, found, err := c.LoadGraph()
	if err != nil {
		return nil, errcode.Annotate(err, "load graph")
	}
	if !found {
		log.Printf("no graph saved for variant %q", c.Variant)
	}
	return g, nil
}
