package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/landmark"
	"github.com/okian/posecom/internal/domain/model"
)

// WriteCSV writes display coordinates. Video media yield one row per frame;
// an image yields one row per exported joint of its single frame. Cells of
// joints that are not visible are left empty. Z columns appear only in 3D
// mode.
func WriteCSV(w io.Writer, doc Document) (err error) {
	cw := csv.NewWriter(w)
	defer func() {
		cw.Flush()
		err = multierr.Append(err, cw.Error())
	}()
	if doc.Media.Kind == model.MediaImage {
		return writeImageCSV(cw, doc)
	}
	return writeVideoCSV(cw, doc)
}

func writeVideoCSV(cw *csv.Writer, doc Document) error {
	withZ := doc.Mode == calibration.Mode3D
	exported := landmark.Exported()
	header := append([]string{"Frame", "Timestamp"}, lo.FlatMap(exported, func(i int, _ int) []string {
		return axisColumns(landmark.Name(i), withZ)
	})...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for fi := range doc.Frames {
		f := &doc.Frames[fi]
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(f.Index), formatFloat(f.Timestamp))
		for _, i := range exported {
			c, ok := f.DisplayAt(i, doc.Threshold)
			row = append(row, coordinateCells(c, ok, withZ)...)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv frame %d: %w", f.Index, err)
		}
	}
	return nil
}

func writeImageCSV(cw *csv.Writer, doc Document) error {
	withZ := doc.Mode == calibration.Mode3D
	header := append([]string{"Index", "Name"}, axisColumns("", withZ)...)
	header = append(header, "Visibility")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	f := &doc.Frames[0]
	for _, i := range landmark.Exported() {
		c, ok := f.DisplayAt(i, doc.Threshold)
		row := []string{strconv.Itoa(i), landmark.Name(i)}
		row = append(row, coordinateCells(c, ok, withZ)...)
		vis := ""
		if j, present := f.Image.Present(i, doc.Threshold); present {
			vis = formatFloat(j.Visibility)
		}
		row = append(row, vis)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv joint %d: %w", i, err)
		}
	}
	return nil
}

// axisColumns returns "<name>_X", "<name>_Y"[, "<name>_Z"], or bare axis
// names for an empty name.
func axisColumns(name string, withZ bool) []string {
	axes := []string{"X", "Y"}
	if withZ {
		axes = append(axes, "Z")
	}
	if name == "" {
		return axes
	}
	return lo.Map(axes, func(a string, _ int) string { return name + "_" + a })
}

func coordinateCells(c calibration.Coordinate, ok, withZ bool) []string {
	n := 2
	if withZ {
		n = 3
	}
	cells := make([]string, n)
	if !ok {
		return cells
	}
	cells[0], cells[1] = formatFloat(c.X), formatFloat(c.Y)
	if withZ && c.Z != nil {
		cells[2] = formatFloat(*c.Z)
	}
	return cells
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
