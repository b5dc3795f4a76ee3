// Package edit implements the delete command: it loads an HTML fragment,
// places a selection in it, runs the deletion engine and writes the edited
// fragment back out.
package edit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/ianaindex"

	"edkit/deletion"
	"edkit/dom"
	"edkit/state"
	"edkit/whitespace"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("edit")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")

	// Old fragments saved by legacy editors may not be UTF-8
	cp := cmd.String("force-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully decoding input", zap.String("charset", n))
		}
	}

	dir := dom.DirBackward
	if cmd.Bool("forward") {
		dir = dom.DirForward
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("direction", dir))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, cmd, src, dst, dir, log)
}

// process performs a single edit independently of the CLI framework.
func process(ctx context.Context, cmd *cli.Command, src, dst string, dir dom.Direction, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read input fragment: %w", err)
	}
	markup := string(data)
	if env.CodePage != nil {
		if markup, err = env.CodePage.NewDecoder().String(string(data)); err != nil {
			return fmt.Errorf("unable to decode input fragment: %w", err)
		}
	}

	body, err := dom.ParseBody(markup)
	if err != nil {
		return fmt.Errorf("unable to parse input fragment: %w", err)
	}
	dom.SetAttr(body, "contenteditable", "true")

	if env.Rpt != nil {
		if xml, err := dom.DumpXML(body); err == nil {
			env.Rpt.StoreData("fragment/before.xml", xml)
		}
	}

	sel, err := buildSelection(cmd, body)
	if err != nil {
		return err
	}

	tree := dom.NewTree(body, log)
	defer tree.Destroy()

	scanner := whitespace.NewScanner(dom.NewStyleResolver(log), log)
	engine := deletion.New(tree, scanner, nil, deletion.Options{
		BlinkCompatibleWhiteSpace:      env.Cfg.Editing.BlinkCompatibleWhiteSpace,
		AllowDeleteHRFromFollowingLine: env.Cfg.Editing.AllowDeleteHRFromFollowingLine,
	}, log)

	strip := cmd.Bool("strip-wrappers") || env.Cfg.Editing.StripEmptyInlineWrappers

	res, err := engine.Run(dir, strip, sel)
	if err != nil {
		return fmt.Errorf("unable to apply deletion: %w", err)
	}

	log.Info("Deletion applied",
		zap.Bool("handled", res.Handled), zap.Bool("canceled", res.Canceled), zap.Stringer("caret", sel.Focus().Start))

	if env.Rpt != nil {
		if xml, err := dom.DumpXML(body); err == nil {
			env.Rpt.StoreData("fragment/after.xml", xml)
		}
	}

	out, err := dom.RenderChildren(body)
	if err != nil {
		return fmt.Errorf("unable to serialize result: %w", err)
	}
	return writeResult(out, dst, env, log)
}

// buildSelection creates the selection the engine will run on from --at or
// --from/--to. Point specifications are resolved against the fragment body.
func buildSelection(cmd *cli.Command, body *html.Node) (*dom.Selection, error) {
	from, to := cmd.String("from"), cmd.String("to")
	if (len(from) == 0) != (len(to) == 0) {
		return nil, errors.New("--from and --to must be specified together")
	}
	if len(from) > 0 {
		start, err := parsePoint(body, from)
		if err != nil {
			return nil, fmt.Errorf("invalid --from point: %w", err)
		}
		end, err := parsePoint(body, to)
		if err != nil {
			return nil, fmt.Errorf("invalid --to point: %w", err)
		}
		return dom.NewSelection(dom.NewRange(start, end)), nil
	}

	at := cmd.String("at")
	if len(at) == 0 {
		return nil, errors.New("no selection has been specified, use --at or --from/--to")
	}
	caret, err := parsePoint(body, at)
	if err != nil {
		return nil, fmt.Errorf("invalid --at point: %w", err)
	}
	return dom.Caret(caret), nil
}

// parsePoint resolves a point specification of the form "[#ID][/INDEX...]:OFFSET".
// The path starts at the element with the given id, or at the fragment root
// when the id is omitted, and descends by child index. When the final node is
// text OFFSET is a byte offset into it, otherwise a child index.
func parsePoint(body *html.Node, spec string) (dom.Point, error) {
	locator, offsetPart, ok := strings.Cut(spec, ":")
	if !ok {
		return dom.Point{}, fmt.Errorf("missing offset in %q", spec)
	}
	offset, err := strconv.Atoi(offsetPart)
	if err != nil || offset < 0 {
		return dom.Point{}, fmt.Errorf("bad offset in %q", spec)
	}

	n := body
	rest := locator
	if strings.HasPrefix(locator, "#") {
		id, tail, _ := strings.Cut(locator[1:], "/")
		if n = dom.FindByID(body, id); n == nil {
			return dom.Point{}, fmt.Errorf("no element with id %q", id)
		}
		rest = tail
	}
	for _, seg := range strings.Split(rest, "/") {
		if len(seg) == 0 {
			continue
		}
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 {
			return dom.Point{}, fmt.Errorf("bad path segment %q in %q", seg, spec)
		}
		if n = dom.ChildAt(n, idx); n == nil {
			return dom.Point{}, fmt.Errorf("path %q leads outside the fragment", spec)
		}
	}

	p := dom.At(n, offset)
	if !p.IsValid() {
		return dom.Point{}, fmt.Errorf("offset %d is out of bounds for %s", offset, dom.NodeName(n))
	}
	return p, nil
}

// writeResult stores the edited fragment at dst, or prints it when no
// destination was given.
func writeResult(markup, dst string, env *state.LocalEnv, log *zap.Logger) error {
	if len(dst) == 0 {
		_, err := os.Stdout.WriteString(markup)
		return err
	}

	if _, err := os.Stat(dst); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", dst)
		}
		log.Warn("Overwriting existing file", zap.String("file", dst))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(dst, []byte(markup), 0644); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	log.Info("Result written", zap.String("file", dst))
	return nil
}
