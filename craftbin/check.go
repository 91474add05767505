package craftbin

import (
	"fmt"
	"log"
	"os"
	"time"

	"shanhu.io/craft"
	"shanhu.io/misc/errcode"
	"shanhu.io/text/lexing"
)

func cmdCheck(args []string) error {
	flags := cmdFlags.New()
	config := new(craft.Config)
	declareFlags(flags, config)
	args = flags.ParseArgs(args)

	g, err := loadGraph(config, args)
	if err != nil {
		return err
	}

	if errs := g.Check(); errs != nil {
		wd, err := os.Getwd()
		if err != nil {
			return errcode.Annotate(err, "get work dir")
		}
		lexing.FprintErrs(os.Stderr, errs, wd)
		return errcode.InvalidArgf("check got %d errors", len(errs))
	}
	return nil
}

func cmdDiff(args []string) error {
	flags := cmdFlags.New()
	config := new(craft.Config)
	declareFlags(flags, config)
	args = flags.ParseArgs(args)
	if len(args) != 1 {
		return errcode.InvalidArgf("expect one graph file to compare with")
	}

	old, err := craft.ReadGraph(args[0])
	if err != nil {
		return errcode.Annotatef(err, "read %q", args[0])
	}
	g, err := loadGraph(config, nil)
	if err != nil {
		return err
	}

	diff, err := craft.DiffGraphs(old, g)
	if err != nil {
		return err
	}
	for _, id := range diff.Added {
		fmt.Println("+", id)
	}
	for _, id := range diff.Removed {
		fmt.Println("-", id)
	}
	for _, id := range diff.Changed {
		fmt.Println("~", id)
	}
	return nil
}

func cmdDirty(args []string) error {
	flags := cmdFlags.New()
	config := new(craft.Config)
	declareFlags(flags, config)
	args = flags.ParseArgs(args)

	g, err := loadGraph(config, args)
	if err != nil {
		return err
	}
	cache, err := config.OpenBuildCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	dirty, err := cache.Dirty(g)
	if err != nil {
		return err
	}
	for _, id := range dirty {
		fmt.Println(id)
	}
	return nil
}

func cmdRecord(args []string) error {
	flags := cmdFlags.New()
	config := new(craft.Config)
	declareFlags(flags, config)
	args = flags.ParseArgs(args)

	g, err := loadGraph(config, args)
	if err != nil {
		return err
	}
	cache, err := config.OpenBuildCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	if err := cache.Record(g, time.Now()); err != nil {
		return errcode.Annotate(err, "record digests")
	}
	log.Printf("%d operators recorded", len(g.Operators()))
	return nil
}
