package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/otshaping/internal/fontload"
	"github.com/npillmayer/otshaping/ot"
	"github.com/npillmayer/otshaping/otlayout"
	"github.com/npillmayer/otshaping/otshape"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

// tracer traces with key 'otshaping.cli'
func tracer() tracing.Trace {
	return tracing.Select("otshaping.cli")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":     "go",
		"trace.otshaping.cli": "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError) // will set the correct level later
	pterm.Info.Println("Welcome to the OpenType layout CLI")
	//
	// set up REPL
	repl, err := readline.New("ot > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl}
	//
	// load font to use
	if err := intp.loadFont(*fontname); err != nil {
		tracer().Errorf(err.Error())
		os.Exit(4)
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D")
	switch *tlevel {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	tracer().Infof("Trace level is %s", *tlevel)
	intp.REPL()
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	sf   *fontload.ScalableFont
	font *ot.Font
	repl *readline.Instance
}

func (intp *Intp) loadFont(fontname string) error {
	if fontname == "" {
		return fmt.Errorf("no font given; use -font")
	}
	sf, err := fontload.LoadOpenTypeFont(fontname)
	if err != nil {
		return err
	}
	font, err := ot.Parse(sf.Binary)
	if err != nil {
		return err
	}
	intp.sf, intp.font = sf, font
	pterm.Info.Printf("loaded font %s\n", sf.Fontname)
	return nil
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		quit, err := intp.execute(strings.Fields(line))
		if err != nil {
			tracer().Errorf(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

func (intp *Intp) execute(args []string) (quit bool, err error) {
	switch args[0] {
	case "quit":
		return true, nil
	case "help":
		printHelp()
	case "tables":
		intp.printTables()
	case "scripts":
		err = intp.printScripts(tableArg(args))
	case "features":
		err = intp.printFeatures(tableArg(args))
	case "lookups":
		err = intp.printLookups(tableArg(args))
	case "lookup":
		err = intp.printLookup(args[1:])
	case "shape":
		err = intp.shape(args[1:])
	default:
		printHelp()
	}
	return false, err
}

// tableArg interprets an optional GSUB/GPOS argument, defaulting to GSUB.
func tableArg(args []string) ot.Tag {
	if len(args) > 1 && strings.EqualFold(args[1], "GPOS") {
		return ot.TagGPos
	}
	return ot.TagGSub
}

func (intp *Intp) layoutTable(tag ot.Tag) (*ot.LayoutTable, error) {
	var t *ot.LayoutTable
	if tag == ot.TagGPos {
		t = intp.font.GPos()
	} else {
		t = intp.font.GSub()
	}
	if t == nil {
		return nil, fmt.Errorf("font has no %s table", tag)
	}
	return t, nil
}

func (intp *Intp) printTables() {
	data := pterm.TableData{{"tag", "size"}}
	for _, tag := range intp.font.TableTags() {
		data = append(data, []string{tag.String(), strconv.Itoa(len(intp.font.TableData(tag)))})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func (intp *Intp) printScripts(tag ot.Tag) error {
	t, err := intp.layoutTable(tag)
	if err != nil {
		return err
	}
	data := pterm.TableData{{"script", "languages"}}
	for _, stag := range t.Scripts.Tags() {
		s := t.Scripts.Script(stag)
		langs := make([]string, 0, len(s.LangSysTags()))
		for _, ltag := range s.LangSysTags() {
			langs = append(langs, ltag.String())
		}
		data = append(data, []string{stag.String(), strings.Join(langs, " ")})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil
}

func (intp *Intp) printFeatures(tag ot.Tag) error {
	t, err := intp.layoutTable(tag)
	if err != nil {
		return err
	}
	data := pterm.TableData{{"#", "feature", "lookups"}}
	for i := 0; i < t.Features.Len(); i++ {
		f := t.Features.Get(i)
		indices := make([]string, 0, f.LookupCount())
		for _, li := range f.LookupIndices() {
			indices = append(indices, strconv.Itoa(int(li)))
		}
		data = append(data, []string{strconv.Itoa(i), f.Tag.String(), strings.Join(indices, " ")})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil
}

func (intp *Intp) printLookups(tag ot.Tag) error {
	t, err := intp.layoutTable(tag)
	if err != nil {
		return err
	}
	data := pterm.TableData{{"#", "type", "flags", "subtables"}}
	for i, lookup := range t.Lookups.Range() {
		data = append(data, []string{
			strconv.Itoa(i),
			strconv.Itoa(int(lookup.Type)),
			fmt.Sprintf("0x%04x", uint16(lookup.Flags)),
			strconv.Itoa(lookup.SubtableCount()),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return nil
}

// printLookup dumps the decoded subtables of one lookup, e.g.
// "lookup 4" or "lookup 4 GPOS".
func (intp *Intp) printLookup(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: lookup <index> [GSUB|GPOS]")
	}
	inx, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("not a lookup index: %q", args[0])
	}
	tag := ot.TagGSub
	if len(args) > 1 && strings.EqualFold(args[1], "GPOS") {
		tag = ot.TagGPos
	}
	t, err := intp.layoutTable(tag)
	if err != nil {
		return err
	}
	lookup, err := t.Lookups.Lookup(inx)
	if err != nil {
		return err
	}
	subtables, err := lookup.Subtables()
	if err != nil {
		return err
	}
	for i, sub := range subtables {
		pterm.Printf("subtable %d: type %d format %d, %d covered glyphs\n",
			i, sub.Type, sub.Format, sub.Coverage.Count())
	}
	return nil
}

// shape runs the pipeline over glyph indices given as decimal numbers,
// e.g. "shape 56 76 76 82".
func (intp *Intp) shape(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: shape <glyph-id> ...")
	}
	glyphs := make([]ot.GlyphIndex, 0, len(args))
	for _, a := range args {
		gid, err := strconv.ParseUint(a, 10, 16)
		if err != nil {
			return fmt.Errorf("not a glyph id: %q", a)
		}
		glyphs = append(glyphs, ot.GlyphIndex(gid))
	}
	params := otshape.Params{
		Font:      intp.font,
		Direction: bidi.LeftToRight,
		Script:    language.MustParseScript("Latn"),
		Language:  language.English,
	}
	buf, err := otshape.Shape(params, glyphs)
	if err != nil {
		return err
	}
	printBuffer(buf)
	return nil
}

func printBuffer(buf *otlayout.Buffer) {
	data := pterm.TableData{{"slot", "glyph", "x-adv", "y-adv", "x-off", "y-off", "attached"}}
	for i := 0; i < buf.Len(); i++ {
		row := []string{strconv.Itoa(i), strconv.Itoa(int(buf.At(i))), "", "", "", "", ""}
		if p := buf.PosAt(i); p != nil {
			row[2] = strconv.Itoa(int(p.XAdvance))
			row[3] = strconv.Itoa(int(p.YAdvance))
			row[4] = strconv.Itoa(int(p.XOffset))
			row[5] = strconv.Itoa(int(p.YOffset))
			if p.AttachedTo >= 0 {
				row[6] = strconv.Itoa(int(p.AttachedTo))
			}
		}
		data = append(data, row)
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printHelp() {
	pterm.Println(`Commands:
  tables              list the font's tables
  scripts  [GSUB|GPOS]   list scripts and language systems
  features [GSUB|GPOS]   list features and their lookup indices
  lookups  [GSUB|GPOS]   list lookups
  lookup <n> [GSUB|GPOS] dump a lookup's subtables
  shape <glyph-id> ...   shape a run of glyph ids and print the buffer
  quit                   leave (or <ctrl>D)`)
}
