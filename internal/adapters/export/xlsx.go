package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"github.com/okian/posecom/internal/domain/calibration"
	"github.com/okian/posecom/internal/domain/landmark"
)

// Workbook sheet names.
const (
	SheetMetadata = "Metadata"
	SheetWorld    = "3D World Coordinates"
	SheetDisplay  = "Display Coordinates"
	SheetSummary  = "Summary"
)

// WriteXLSX writes doc as a four-sheet workbook.
func WriteXLSX(w io.Writer, doc Document) (err error) {
	f := excelize.NewFile()
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetMetadata); err != nil {
		return fmt.Errorf("rename metadata sheet: %w", err)
	}
	for _, name := range []string{SheetWorld, SheetDisplay, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	err = multierr.Combine(
		writeMetadataSheet(f, doc),
		writeWorldSheet(f, doc),
		writeDisplaySheet(f, doc),
		writeSummarySheet(f, doc),
	)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func writeMetadataSheet(f *excelize.File, doc Document) error {
	rows := [][]interface{}{
		{"Property", "Value"},
		{"Media Kind", string(doc.Media.Kind)},
		{"FPS", doc.Media.FPS},
		{"Duration", doc.Media.Duration},
		{"Width", doc.Media.Width},
		{"Height", doc.Media.Height},
		{"Analysis Mode", string(doc.Mode)},
		{"Sex", doc.Sex.String()},
		{"Total Frames", doc.TotalFrames()},
		{"Captured Frames", len(doc.Frames)},
		{"Calibration Point 1", fmt.Sprintf("(%.4f, %.4f)", doc.Calibration.Point1.X, doc.Calibration.Point1.Y)},
		{"Calibration Point 2", fmt.Sprintf("(%.4f, %.4f)", doc.Calibration.Point2.X, doc.Calibration.Point2.Y)},
		{"Scale (m)", doc.Calibration.ScaleMeters},
		{"Visibility Threshold", doc.Threshold},
		{"Export Date", doc.ExportedAt.UTC().Format(time.RFC3339)},
	}
	var errs error
	for i, r := range rows {
		errs = multierr.Append(errs, setRow(f, SheetMetadata, i+1, r))
	}
	return errs
}

func coordinateHeader(withZ bool) []interface{} {
	header := []interface{}{"Frame", "Timestamp"}
	for _, i := range landmark.Exported() {
		for _, col := range axisColumns(landmark.Name(i), withZ) {
			header = append(header, col)
		}
	}
	return header
}

func appendCoordinate(row []interface{}, c calibration.Coordinate, ok, withZ bool) []interface{} {
	if !ok {
		row = append(row, nil, nil)
		if withZ {
			row = append(row, nil)
		}
		return row
	}
	row = append(row, c.X, c.Y)
	if withZ {
		if c.Z != nil {
			row = append(row, *c.Z)
		} else {
			row = append(row, nil)
		}
	}
	return row
}

// writeWorldSheet writes the metric world landmarks with Y pointing up,
// independent of the analysis mode.
func writeWorldSheet(f *excelize.File, doc Document) error {
	if err := setRow(f, SheetWorld, 1, coordinateHeader(true)); err != nil {
		return err
	}
	for fi := range doc.Frames {
		fr := &doc.Frames[fi]
		row := []interface{}{fr.Index, fr.Timestamp}
		for _, i := range landmark.Exported() {
			var c calibration.Coordinate
			j, ok := fr.World.Get(i)
			ok = ok && fr.Visible(i, doc.Threshold)
			if ok {
				c = calibration.World(j)
			}
			row = appendCoordinate(row, c, ok, true)
		}
		if err := setRow(f, SheetWorld, fi+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeDisplaySheet(f *excelize.File, doc Document) error {
	withZ := doc.Mode == calibration.Mode3D
	if err := setRow(f, SheetDisplay, 1, coordinateHeader(withZ)); err != nil {
		return err
	}
	for fi := range doc.Frames {
		fr := &doc.Frames[fi]
		row := []interface{}{fr.Index, fr.Timestamp}
		for _, i := range landmark.Exported() {
			c, ok := fr.DisplayAt(i, doc.Threshold)
			row = appendCoordinate(row, c, ok, withZ)
		}
		if err := setRow(f, SheetDisplay, fi+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, doc Document) error {
	header := []interface{}{"Frame", "Timestamp", "Detected_Joints", "Avg_Visibility", "Total_Body_COM_X", "Total_Body_COM_Y"}
	if err := setRow(f, SheetSummary, 1, header); err != nil {
		return err
	}
	for i, s := range doc.Summaries() {
		row := []interface{}{s.Frame, s.Timestamp, s.DetectedJoints, s.AvgVisibility, nil, nil}
		if s.TotalBodyCOMX != nil {
			row[4], row[5] = *s.TotalBodyCOMX, *s.TotalBodyCOMY
		}
		if err := setRow(f, SheetSummary, i+2, row); err != nil {
			return err
		}
	}
	return nil
}
