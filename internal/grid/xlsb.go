package grid

import (
	"archive/zip"
	"bufio"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strings"
	"unicode/utf16"
)

// Minimal BIFF12 (.xlsb) reader. Only the record types needed to stream
// sheet data are decoded; everything else is skipped by length. The
// format is a zip container of binary parts mirroring the xlsx part
// layout: xl/workbook.bin names the sheets, xl/sharedStrings.bin holds
// the shared string table, xl/worksheets/sheetN.bin holds cell records.
//
// Record framing: record id is one or two bytes (high bit of the first
// byte signals a second), record length is a 7-bit varint of up to four
// bytes. Cells carry a column index, a 4-byte style ref, then a payload
// that depends on the record type.

// BIFF12 record ids handled by the reader.
const (
	brtRowHdr       = 0x0000
	brtCellBlank    = 0x0001
	brtCellRk       = 0x0002
	brtCellError    = 0x0003
	brtCellBool     = 0x0004
	brtCellReal     = 0x0005
	brtCellSt       = 0x0006
	brtCellIsst     = 0x0007
	brtSstItem      = 0x0013
	brtBundleSh     = 0x009C
	brtEndSheetData = 0x0092
)

// readXLSB reads a binary workbook, streaming records row by row.
func readXLSB(path string, pick func([]string) string) (Grid, string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", &FormatError{Path: path, Format: "xlsb", Err: err}
	}
	defer zr.Close()

	wb, err := newXLSBWorkbook(&zr.Reader)
	if err != nil {
		return nil, "", &FormatError{Path: path, Format: "xlsb", Err: err}
	}

	sheet := pick(wb.sheetNames())
	if sheet == "" {
		return nil, "", &FormatError{Path: path, Format: "xlsb", Err: errors.New("no matching sheet")}
	}
	g, err := wb.readSheet(sheet)
	if err != nil {
		return nil, "", &FormatError{Path: path, Format: "xlsb", Err: err}
	}
	return g, sheet, nil
}

type xlsbSheet struct {
	name string
	part string // zip part path, e.g. xl/worksheets/sheet1.bin
}

type xlsbWorkbook struct {
	zr     *zip.Reader
	sheets []xlsbSheet
	sst    []string
}

func newXLSBWorkbook(zr *zip.Reader) (*xlsbWorkbook, error) {
	wb := &xlsbWorkbook{zr: zr}
	if err := wb.loadSheets(); err != nil {
		return nil, err
	}
	if err := wb.loadSharedStrings(); err != nil {
		return nil, err
	}
	return wb, nil
}

func (wb *xlsbWorkbook) sheetNames() []string {
	names := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		names[i] = s.name
	}
	return names
}

func (wb *xlsbWorkbook) open(name string) (io.ReadCloser, error) {
	for _, f := range wb.zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("part not found: %s", name)
}

// workbookRels maps relationship ids to worksheet part paths. The rels
// part is plain XML even inside a binary workbook.
func (wb *xlsbWorkbook) workbookRels() (map[string]string, error) {
	rc, err := wb.open("xl/_rels/workbook.bin.rels")
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var rels struct {
		Relationships []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.NewDecoder(rc).Decode(&rels); err != nil {
		return nil, err
	}
	m := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		target := r.Target
		if !strings.HasPrefix(target, "/") {
			target = path.Join("xl", target)
		} else {
			target = strings.TrimPrefix(target, "/")
		}
		m[r.ID] = target
	}
	return m, nil
}

// loadSheets walks workbook.bin bundle records for sheet names and
// resolves their parts through the rels map.
func (wb *xlsbWorkbook) loadSheets() error {
	rels, err := wb.workbookRels()
	if err != nil {
		return err
	}

	rc, err := wb.open("xl/workbook.bin")
	if err != nil {
		return err
	}
	defer rc.Close()

	r := &recordReader{br: newByteReader(rc)}
	for {
		id, payload, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if id != brtBundleSh {
			continue
		}
		// BrtBundleSh: hsState (4) + iTabID (4) + relID + name.
		p := payload
		if len(p) < 8 {
			continue
		}
		p = p[8:]
		relID, p, err := readXLWideString(p)
		if err != nil {
			return err
		}
		name, _, err := readXLWideString(p)
		if err != nil {
			return err
		}
		part, ok := rels[relID]
		if !ok {
			continue
		}
		wb.sheets = append(wb.sheets, xlsbSheet{name: name, part: part})
	}
	if len(wb.sheets) == 0 {
		return errors.New("workbook.bin holds no sheet bundles")
	}
	return nil
}

func (wb *xlsbWorkbook) loadSharedStrings() error {
	rc, err := wb.open("xl/sharedStrings.bin")
	if err != nil {
		// Legal: a workbook with no string cells has no sst part.
		return nil
	}
	defer rc.Close()

	r := &recordReader{br: newByteReader(rc)}
	for {
		id, payload, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if id != brtSstItem {
			continue
		}
		// BrtSstItem: flags byte + rich string; plain text is enough here.
		if len(payload) < 1 {
			continue
		}
		s, _, err := readXLWideString(payload[1:])
		if err != nil {
			return err
		}
		wb.sst = append(wb.sst, s)
	}
	return nil
}

// readSheet streams one worksheet part into a grid. Rows arrive in
// order; column indexes inside a row may be sparse and are padded with
// nil cells.
func (wb *xlsbWorkbook) readSheet(name string) (Grid, error) {
	var part string
	for _, s := range wb.sheets {
		if s.name == name {
			part = s.part
			break
		}
	}
	if part == "" {
		return nil, fmt.Errorf("sheet not found: %s", name)
	}

	rc, err := wb.open(part)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		g       Grid
		current Row
		haveRow bool
	)
	flush := func() {
		if haveRow {
			g = append(g, current)
			current = nil
			haveRow = false
		}
	}

	setCell := func(col int, v Cell) {
		if col < 0 || col > 16383 {
			return
		}
		for len(current) <= col {
			current = append(current, nil)
		}
		current[col] = v
	}

	r := &recordReader{br: newByteReader(rc)}
	for {
		id, payload, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch id {
		case brtRowHdr:
			if len(payload) < 4 {
				continue
			}
			rw := int(binary.LittleEndian.Uint32(payload))
			flush()
			// Pad skipped row numbers so grid indexes match sheet rows.
			for len(g) < rw {
				g = append(g, Row{})
			}
			haveRow = true
		case brtEndSheetData:
			flush()
		case brtCellBlank, brtCellError:
			// Nothing to record; blank cells stay nil.
		case brtCellRk:
			if col, ok := cellColumn(payload); ok && len(payload) >= 12 {
				setCell(col, decodeRk(binary.LittleEndian.Uint32(payload[8:12])))
			}
		case brtCellReal:
			if col, ok := cellColumn(payload); ok && len(payload) >= 16 {
				setCell(col, math.Float64frombits(binary.LittleEndian.Uint64(payload[8:16])))
			}
		case brtCellBool:
			if col, ok := cellColumn(payload); ok && len(payload) >= 9 {
				setCell(col, payload[8] != 0)
			}
		case brtCellSt:
			if col, ok := cellColumn(payload); ok && len(payload) > 8 {
				if s, _, err := readXLWideString(payload[8:]); err == nil && s != "" {
					setCell(col, s)
				}
			}
		case brtCellIsst:
			if col, ok := cellColumn(payload); ok && len(payload) >= 12 {
				isst := int(binary.LittleEndian.Uint32(payload[8:12]))
				if isst >= 0 && isst < len(wb.sst) {
					if s := wb.sst[isst]; s != "" {
						setCell(col, s)
					}
				}
			}
		}
	}
	flush()
	return g, nil
}

// cellColumn extracts the column index from a cell record payload
// (first 4 bytes; the next 4 are the style ref, unused here).
func cellColumn(payload []byte) (int, bool) {
	if len(payload) < 8 {
		return 0, false
	}
	return int(binary.LittleEndian.Uint32(payload[:4]) & 0x3FFF), true
}

// decodeRk expands the packed RkNumber encoding: bit 0 selects /100
// scaling, bit 1 selects integer vs truncated-double payload.
func decodeRk(rk uint32) float64 {
	var v float64
	if rk&0x2 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x1 != 0 {
		v /= 100
	}
	return v
}

// readXLWideString decodes an XLWideString (uint32 char count followed
// by UTF-16LE code units) and returns the remaining payload.
func readXLWideString(p []byte) (string, []byte, error) {
	if len(p) < 4 {
		return "", nil, errors.New("short XLWideString header")
	}
	n := int(binary.LittleEndian.Uint32(p))
	p = p[4:]
	if n < 0 || n > 0x7FFFFF || len(p) < n*2 {
		return "", nil, errors.New("XLWideString length out of range")
	}
	u16 := make([]uint16, n)
	for i := 0; i < n; i++ {
		u16[i] = binary.LittleEndian.Uint16(p[i*2:])
	}
	return string(utf16.Decode(u16)), p[n*2:], nil
}

// recordReader frames BIFF12 records from a byte stream.
type recordReader struct {
	br io.ByteReader
}

// next returns the id and payload of the next record, or io.EOF cleanly
// at end of part.
func (r *recordReader) next() (uint16, []byte, error) {
	id, err := r.readID()
	if err != nil {
		return 0, nil, err
	}
	length, err := r.readLen()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}
	payload := make([]byte, length)
	for i := range payload {
		b, err := r.br.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, nil, err
		}
		payload[i] = b
	}
	return id, payload, nil
}

func (r *recordReader) readID() (uint16, error) {
	b1, err := r.br.ReadByte()
	if err != nil {
		return 0, err
	}
	if b1&0x80 == 0 {
		return uint16(b1), nil
	}
	b2, err := r.br.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return uint16(b1&0x7F) | uint16(b2&0x7F)<<7, nil
}

func (r *recordReader) readLen() (int, error) {
	var n, shift int
	for i := 0; i < 4; i++ {
		b, err := r.br.ReadByte()
		if err != nil {
			return 0, err
		}
		n |= int(b&0x7F) << shift
		if b&0x80 == 0 {
			return n, nil
		}
		shift += 7
	}
	return 0, errors.New("record length varint too long")
}

func newByteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}
