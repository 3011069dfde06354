package sheets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/Vovarama1992/kos-ai-bridge/internal/booking"
	"github.com/Vovarama1992/kos-ai-bridge/internal/config"
)

var ErrSheetNotFound = errors.New("sheet not found in spreadsheet")

var (
	green = &gsheets.Color{Green: 1, ForceSendFields: []string{"Red", "Green", "Blue"}}
	red   = &gsheets.Color{Red: 1, ForceSendFields: []string{"Red", "Green", "Blue"}}
)

// spreadsheetAPI is what Mirror needs from the Sheets service.
type spreadsheetAPI interface {
	SheetID(ctx context.Context, spreadsheetID, title string) (int64, error)
	BatchUpdate(ctx context.Context, spreadsheetID string, reqs []*gsheets.Request) error
}

// Mirror colours one cell per room: green when available, red when occupied.
type Mirror struct {
	api           spreadsheetAPI
	spreadsheetID string
	sheetName     string
	cells         map[int64]cell

	mu      sync.Mutex
	sheetID *int64
}

func NewMirror(ctx context.Context, cfg config.SheetsConfig) (*Mirror, error) {
	cells, err := parseRoomCells(cfg.RoomCells)
	if err != nil {
		return nil, err
	}
	srv, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return newMirror(&serviceAPI{srv: srv}, cfg.SpreadsheetID, cfg.SheetName, cells), nil
}

func newMirror(api spreadsheetAPI, spreadsheetID, sheetName string, cells map[int64]cell) *Mirror {
	return &Mirror{
		api:           api,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		cells:         cells,
	}
}

// PushAvailability sends all mapped rooms in one batch. Rooms without a
// cell are skipped.
func (m *Mirror) PushAvailability(ctx context.Context, rooms []booking.RoomAvailability) error {
	sheetID, err := m.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	reqs := m.buildRequests(sheetID, rooms)
	if len(reqs) == 0 {
		return nil
	}
	if err := m.api.BatchUpdate(ctx, m.spreadsheetID, reqs); err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	log.Printf("[sheets] coloured %d room cell(s)", len(reqs))
	return nil
}

func (m *Mirror) resolveSheetID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sheetID != nil {
		return *m.sheetID, nil
	}
	id, err := m.api.SheetID(ctx, m.spreadsheetID, m.sheetName)
	if err != nil {
		return 0, fmt.Errorf("resolve sheet %q: %w", m.sheetName, err)
	}
	m.sheetID = &id
	return id, nil
}

func (m *Mirror) buildRequests(sheetID int64, rooms []booking.RoomAvailability) []*gsheets.Request {
	// last write per room wins
	latest := make(map[int64]bool, len(rooms))
	for _, r := range rooms {
		latest[r.RoomID] = r.Available
	}
	ids := make([]int64, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var reqs []*gsheets.Request
	for _, id := range ids {
		c, ok := m.cells[id]
		if !ok {
			log.Printf("[sheets] no cell for room=%d, skipping", id)
			continue
		}
		color := red
		if latest[id] {
			color = green
		}
		reqs = append(reqs, &gsheets.Request{
			RepeatCell: &gsheets.RepeatCellRequest{
				Range: &gsheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    c.Row,
					EndRowIndex:      c.Row + 1,
					StartColumnIndex: c.Col,
					EndColumnIndex:   c.Col + 1,
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Cell: &gsheets.CellData{
					UserEnteredFormat: &gsheets.CellFormat{BackgroundColor: color},
				},
				Fields: "userEnteredFormat.backgroundColor",
			},
		})
	}
	return reqs
}

type serviceAPI struct {
	srv *gsheets.Service
}

func (s *serviceAPI) SheetID(ctx context.Context, spreadsheetID, title string) (int64, error) {
	resp, err := s.srv.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for _, sh := range resp.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, ErrSheetNotFound
}

func (s *serviceAPI) BatchUpdate(ctx context.Context, spreadsheetID string, reqs []*gsheets.Request) error {
	_, err := s.srv.Spreadsheets.BatchUpdate(spreadsheetID, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	return err
}
