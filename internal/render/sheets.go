package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/notify"
)

// XLSXContentType is the MIME type of the workbooks WriteSheets produces.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MissionSheet is what one player needs to carry out one mission.
type MissionSheet struct {
	Headline string
	Circle   string
	Owner    string
	Victim   string
	Code     string
	URL      string
}

// MissionSheets returns a sheet for every achievable assignment of g,
// addressed to its current owner. code derives the victim's secret code.
func MissionSheets(g *domain.Game, code func(*domain.Assignment) string, baseURL string) []MissionSheet {
	url := gameURL(baseURL, g.ID)
	var out []MissionSheet
	for _, a := range g.Achievable() {
		owner := a.CurrentOwner()
		if owner == nil {
			continue
		}
		headline := g.Title
		if len(g.Circles) > 1 {
			headline = g.Title + " - " + a.Circle.Name
		}
		out = append(out, MissionSheet{
			Headline: headline,
			Circle:   a.Circle.Name,
			Owner:    owner.Name,
			Victim:   a.Victim.Name,
			Code:     code(a),
			URL:      url,
		})
	}
	return out
}

// UpdateSheets returns a sheet for every mission in u. The headline names
// the circle when the player has missions in more than one.
func UpdateSheets(u notify.Update, baseURL string) []MissionSheet {
	circles := make(map[string]bool)
	for _, m := range u.Missions {
		circles[m.Circle] = true
	}
	url := gameURL(baseURL, u.GameID)
	out := make([]MissionSheet, 0, len(u.Missions))
	for _, m := range u.Missions {
		headline := u.GameTitle
		if len(circles) > 1 {
			headline = u.GameTitle + " - " + m.Circle
		}
		out = append(out, MissionSheet{
			Headline: headline,
			Circle:   m.Circle,
			Owner:    m.Owner,
			Victim:   m.Victim,
			Code:     m.Code,
			URL:      url,
		})
	}
	return out
}

// SheetAttachment returns an attachment builder for notify.SMTPSink that
// mails players their mission sheets. Updates without missions go out
// without an attachment.
func SheetAttachment(baseURL string) func(notify.Update) (*notify.Attachment, error) {
	return func(u notify.Update) (*notify.Attachment, error) {
		if len(u.Missions) == 0 {
			return nil, nil
		}
		var buf bytes.Buffer
		if err := WriteSheets(&buf, UpdateSheets(u, baseURL)); err != nil {
			return nil, err
		}
		return &notify.Attachment{
			Name:        fmt.Sprintf("missions-%s-%s.xlsx", u.GameID, u.Player),
			ContentType: XLSXContentType,
			Data:        buf.Bytes(),
		}, nil
	}
}

func gameURL(baseURL, gameID string) string {
	return strings.TrimRight(baseURL, "/") + "/" + gameID
}

const (
	sheetName = "Missions"
	qrSize    = 128
	rowHeight = 100
)

var sheetHeader = []any{"Headline", "Circle", "Owner", "Victim", "Code", "URL", "QR"}

// WriteSheets writes the mission sheets as an XLSX workbook with one row per
// sheet and a QR code of the game URL in the last column.
func WriteSheets(w io.Writer, sheets []MissionSheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &sheetHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "G1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "F", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	qr := make(map[string][]byte)
	for i, s := range sheets {
		row := i + 2
		axis, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		cells := []any{s.Headline, s.Circle, s.Owner, s.Victim, s.Code, s.URL}
		if err := f.SetSheetRow(sheetName, axis, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}

		png, ok := qr[s.URL]
		if !ok {
			png, err = qrcode.Encode(s.URL, qrcode.Medium, qrSize)
			if err != nil {
				return fmt.Errorf("encode qr code for %s: %w", s.URL, err)
			}
			qr[s.URL] = png
		}
		if err := f.SetRowHeight(sheetName, row, rowHeight); err != nil {
			return fmt.Errorf("set row height: %w", err)
		}
		cell, err := excelize.CoordinatesToCellName(7, row)
		if err != nil {
			return err
		}
		pic := &excelize.Picture{
			Extension: ".png",
			File:      png,
			Format:    &excelize.GraphicOptions{AltText: s.URL, ScaleX: 0.9, ScaleY: 0.9},
		}
		if err := f.AddPictureFromBytes(sheetName, cell, pic); err != nil {
			return fmt.Errorf("add qr code to row %d: %w", row, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
