package classify

// HeadingContext is the scan state threaded from block to block and from
// page to page.
type HeadingContext struct {
	// Level2Active is set once a second-level heading has been captured and
	// stays set until a chapter boundary or a marked level-2 heading
	Level2Active bool

	// Level3Active is the third-level counterpart of Level2Active
	Level3Active bool

	// Level2MarkedDone records that the current block is itself a marked
	// level-2 heading, so it is not captured a second time as a heading
	Level2MarkedDone bool

	// Level3MarkedDone is the third-level counterpart of Level2MarkedDone
	Level3MarkedDone bool

	// FigureShownOnPage is set once a figure has been captured on the page
	FigureShownOnPage bool

	// TableHandledOnPage is set once a table with marked text has been
	// captured on the page
	TableHandledOnPage bool
}

// StartPage returns the context to use at the top of a new page: the
// per-page flags are cleared and the heading levels carry over.
func (hc HeadingContext) StartPage() HeadingContext {
	hc.FigureShownOnPage = false
	hc.TableHandledOnPage = false
	return hc
}

// startBlock clears the per-block flags.
func (hc HeadingContext) startBlock() HeadingContext {
	hc.Level2MarkedDone = false
	hc.Level3MarkedDone = false
	return hc
}
