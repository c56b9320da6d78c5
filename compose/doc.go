// Package compose places captured regions on an output canvas and extracts
// them in reading order.
//
// A [Canvas] has one [OutputPage] per source page. A [Composer] captures
// each region through a [Capturer] and appends the image to the region's
// page at its source coordinates; nothing is re-flowed. [Canvas.Extract]
// returns the rasters page by page, each page sorted by top edge, and
// closes the canvas. [Run] wraps the whole lifetime:
//
//	rasters, err := compose.Run(ctx, pages, compose.Config{Capturer: z},
//	    func(ctx context.Context, c *compose.Composer) error {
//	        for _, r := range regions {
//	            if err := c.Place(ctx, r); err != nil {
//	                return err
//	            }
//	        }
//	        return nil
//	    })
package compose
