package classify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/redline/internal/logging"
	"github.com/tsawler/redline/model"
	"github.com/tsawler/redline/tables"
)

// Config holds configuration for region classification
type Config struct {
	// Template is the rule table. Unset fields take their value from
	// DefaultTemplate(): a zero Marked colour, nil Bullets, nil Roles, nil
	// TableTriggers and a zero FormulaShrink. Use empty non-nil slices or
	// maps to disable a rule set.
	Template Template

	// Finder locates tables for the table pass. With a nil Finder no table
	// regions are produced.
	Finder tables.Finder

	// Logger receives page notices and table pass failures (default: discard)
	Logger logrus.FieldLogger
}

// DefaultConfig returns the configuration for the default template
func DefaultConfig() Config {
	return Config{
		Template: DefaultTemplate(),
	}
}

// Classifier scans pages block by block and decides which regions are
// captured.
type Classifier struct {
	tmpl   Template
	finder tables.Finder
	xref   *tables.CrossReferencer
	log    logrus.FieldLogger
}

// New creates a classifier with the given configuration
func New(config Config) *Classifier {
	config.Template = config.Template.withDefaults()
	return &Classifier{
		tmpl:   config.Template,
		finder: config.Finder,
		xref:   tables.NewCrossReferencer(config.Template.Marked),
		log:    logging.OrDiscard(config.Logger),
	}
}

// pageScan is the state that lives for one page only.
type pageScan struct {
	page       *model.Page
	regions    []model.Region
	noticed    bool
	tablesDone bool
}

func (s *pageScan) emit(kind model.RegionKind, bbox model.Rect, detail model.RegionDetail) {
	s.regions = append(s.regions, model.Region{
		Page:   s.page.Index,
		BBox:   bbox,
		Kind:   kind,
		Detail: detail,
	})
}

// ClassifyPage classifies every block of page in content order and returns
// the regions to capture, in emission order, together with the updated
// context. The per-page flags of hc are cleared before the first block.
//
// The only error is the context's.
func (c *Classifier) ClassifyPage(ctx context.Context, page *model.Page, hc HeadingContext) ([]model.Region, HeadingContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, hc, err
	}
	if page == nil {
		return nil, hc, nil
	}

	hc = hc.StartPage()
	scan := &pageScan{page: page}
	for i := range page.Blocks {
		hc = c.classifyBlock(ctx, scan, &page.Blocks[i], hc)
	}
	return scan.regions, hc, nil
}

// blockFacts is what a single pass over a block's spans reveals.
type blockFacts struct {
	roles     map[Role]bool
	marked    bool
	triggered bool
	boldTitle bool
}

func (c *Classifier) scanBlock(b *model.Block) blockFacts {
	f := blockFacts{roles: make(map[Role]bool)}
	for _, l := range b.Lines {
		for _, s := range l.Spans {
			sig, ok := SignatureOf(s)
			role := RoleNone
			if ok {
				role = c.tmpl.Role(sig)
				f.roles[role] = true
			}

			if s.Color == c.tmpl.Marked && !c.tmpl.IsBullet(s.Text) {
				f.marked = true
				if ok && c.tmpl.IsTrigger(sig, s.Text) {
					f.triggered = true
				}
			}

			if s.Color == c.tmpl.Black && role == RoleBlackTitle && isBoldFont(s.FontName) {
				f.boldTitle = true
			}
		}
	}
	return f
}

func (c *Classifier) classifyBlock(ctx context.Context, scan *pageScan, b *model.Block, hc HeadingContext) HeadingContext {
	hc = hc.startBlock()
	facts := c.scanBlock(b)
	before := len(scan.regions)

	if facts.marked {
		if !scan.noticed {
			scan.noticed = true
			c.log.WithField("page", scan.page.Index+1).Info("page contains marked text")
		}

		if facts.triggered && !scan.tablesDone {
			c.tablePass(ctx, scan, &hc)
		}

		if facts.roles[RoleHeading2] {
			hc.Level2MarkedDone = true
			hc.Level2Active = false
			hc.Level3Active = false
		}
		if facts.roles[RoleHeading3] {
			hc.Level3MarkedDone = true
			hc.Level3Active = false
		}
	}

	if facts.roles[RoleChapter] {
		hc.Level2Active = false
		hc.Level3Active = false
	} else {
		if facts.roles[RoleHeading2] && !hc.Level2MarkedDone {
			scan.emit(model.Heading2, b.BBox, nil)
			hc.Level2Active = true
		}
		if facts.roles[RoleHeading3] && !hc.Level3MarkedDone {
			scan.emit(model.Heading3, b.BBox, nil)
			hc.Level3Active = true
		}
	}

	switch {
	case facts.marked && facts.roles[RoleFigureTitle]:
		if !hc.FigureShownOnPage {
			scan.emit(model.FigureTitle, b.BBox, nil)
			// Every image except the last one painted.
			for i := 0; i < len(scan.page.Images)-1; i++ {
				scan.emit(model.Figure, scan.page.Images[i], model.FigureDetail{ImageIndex: i})
			}
			hc.FigureShownOnPage = true
		}
	case facts.marked:
		if hc.TableHandledOnPage && facts.roles[RoleTableBody] {
			break
		}
		if facts.roles[RoleFormula] {
			scan.emit(model.Formula, b.BBox.ShrinkVertical(c.tmpl.FormulaShrink), model.FormulaDetail{Original: b.BBox})
		} else {
			scan.emit(model.MarkedText, b.BBox, nil)
		}
	}

	if len(scan.regions) == before && facts.boldTitle {
		scan.emit(model.Title, b.BBox, nil)
	}

	return hc
}

// tablePass finds the page's tables and emits those holding marked text.
// A non-empty finder result completes the page's table scan.
func (c *Classifier) tablePass(ctx context.Context, scan *pageScan, hc *HeadingContext) {
	if c.finder == nil {
		return
	}

	rects, flagged, err := c.findFlagged(ctx, scan.page)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"page":  scan.page.Index + 1,
			"error": err,
		}).Warn("table detection failed")
		return
	}
	if len(rects) == 0 {
		return
	}

	scan.tablesDone = true
	for _, f := range flagged {
		scan.emit(model.Table, f.BBox, model.TableDetail{TableIndex: f.Index})
	}
	if len(flagged) > 0 {
		hc.TableHandledOnPage = true
	}
}

func (c *Classifier) findFlagged(ctx context.Context, page *model.Page) (rects []model.Rect, flagged []tables.Flagged, err error) {
	defer func() {
		if r := recover(); r != nil {
			rects, flagged = nil, nil
			err = fmt.Errorf("table detection panicked: %v", r)
		}
	}()

	rects, err = c.finder.FindTables(ctx, page.Index)
	if err != nil {
		return nil, nil, err
	}
	return rects, c.xref.Flag(page, rects), nil
}
