package controllers

import (
	"bytes"
	"context"

	"tracker/src/utils"
	"tracker/src/utils/render"
)

// GetAllocationChart renders the asset allocation pie as a standalone page.
func (c *Controller) GetAllocationChart(ctx context.Context) (*bytes.Buffer, error) {
	allocation, err := c.Portfolio.AssetAllocation(ctx)
	if err != nil {
		return nil, err
	}
	if len(allocation) == 0 {
		return nil, utils.NotFound("no positions held")
	}

	var buf bytes.Buffer
	if err := render.NewAllocationPie("Asset allocation", allocation).Render(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}
