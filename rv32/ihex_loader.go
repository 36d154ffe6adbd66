// ihex_loader.go - Intel HEX program image loader

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

/*
ihex_loader.go - Intel HEX Program Loader

Each record is one text line:

  :LLAAAATT[DD...]CC

  LL    data byte count
  AAAA  16-bit load offset
  TT    record type
  DD    data bytes
  CC    two's-complement checksum of every byte from LL to the last DD

Record types:

  00  data                       bytes land at base+AAAA
  01  end of file                stop reading
  02  extended segment address   base = value*16
  03  start segment address      entry = CS*16 + IP
  04  extended linear address    base = value<<16
  05  start linear address       entry = value

Blank lines are skipped. Anything else that is not a well-formed record is a
LoadError carrying the offending line number; nothing is silently skipped.
*/

package rv32

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const (
	IHEX_DATA          = 0x00
	IHEX_EOF           = 0x01
	IHEX_EXT_SEGMENT   = 0x02
	IHEX_START_SEGMENT = 0x03
	IHEX_EXT_LINEAR    = 0x04
	IHEX_START_LINEAR  = 0x05
)

// Image is a loaded program: an entry address and the bytes it defines.
type Image struct {
	Entry    uint32
	HasEntry bool // a start address record was present
	Bytes    map[uint32]byte
}

// LoaderOptions tune image parsing.
type LoaderOptions struct {
	VerifyChecksum bool
}

func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{VerifyChecksum: true}
}

// LoadHexFile reads an Intel HEX file from disk.
func LoadHexFile(path string, opts LoaderOptions) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return ParseHex(f, opts)
}

// ParseHex parses Intel HEX text from r.
func ParseHex(r io.Reader, opts LoaderOptions) (*Image, error) {
	img := &Image{Bytes: make(map[uint32]byte)}
	var base uint32

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		rec, err := parseRecord(text, opts.VerifyChecksum)
		if err != nil {
			return nil, &LoadError{Line: lineNo, Text: text, Reason: err.Error()}
		}

		switch rec.typ {
		case IHEX_DATA:
			addr := base + uint32(rec.offset)
			for i, b := range rec.data {
				img.Bytes[addr+uint32(i)] = b
			}

		case IHEX_EOF:
			return img, nil

		case IHEX_EXT_SEGMENT:
			if len(rec.data) != 2 {
				return nil, &LoadError{Line: lineNo, Text: text, Reason: "extended segment address needs 2 data bytes"}
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) * 16

		case IHEX_START_SEGMENT:
			if len(rec.data) != 4 {
				return nil, &LoadError{Line: lineNo, Text: text, Reason: "start segment address needs 4 data bytes"}
			}
			cs := uint32(rec.data[0])<<8 | uint32(rec.data[1])
			ip := uint32(rec.data[2])<<8 | uint32(rec.data[3])
			img.Entry = cs*16 + ip
			img.HasEntry = true

		case IHEX_EXT_LINEAR:
			if len(rec.data) != 2 {
				return nil, &LoadError{Line: lineNo, Text: text, Reason: "extended linear address needs 2 data bytes"}
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 16

		case IHEX_START_LINEAR:
			if len(rec.data) != 4 {
				return nil, &LoadError{Line: lineNo, Text: text, Reason: "start linear address needs 4 data bytes"}
			}
			img.Entry = uint32(rec.data[0])<<24 | uint32(rec.data[1])<<16 | uint32(rec.data[2])<<8 | uint32(rec.data[3])
			img.HasEntry = true

		default:
			return nil, &LoadError{Line: lineNo, Text: text, Reason: fmt.Sprintf("unknown record type %02X", rec.typ)}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return nil, &LoadError{Line: lineNo, Reason: "missing end-of-file record"}
}

type ihexRecord struct {
	offset uint16
	typ    byte
	data   []byte
}

func parseRecord(text string, verify bool) (ihexRecord, error) {
	if text[0] != ':' {
		return ihexRecord{}, fmt.Errorf("record does not start with ':'")
	}
	raw, err := hex.DecodeString(text[1:])
	if err != nil {
		return ihexRecord{}, fmt.Errorf("invalid hex digits")
	}
	// count, offset(2), type, checksum
	if len(raw) < 5 {
		return ihexRecord{}, fmt.Errorf("record truncated")
	}
	count := int(raw[0])
	if len(raw) != count+5 {
		return ihexRecord{}, fmt.Errorf("byte count %d does not match record length %d", count, len(raw)-5)
	}
	if verify {
		var sum byte
		for _, b := range raw {
			sum += b
		}
		if sum != 0 {
			return ihexRecord{}, fmt.Errorf("checksum mismatch")
		}
	}
	return ihexRecord{
		offset: uint16(raw[1])<<8 | uint16(raw[2]),
		typ:    raw[3],
		data:   raw[4 : 4+count],
	}, nil
}

// Dump writes img as Intel HEX text. Consecutive bytes are grouped into
// records of up to 16 bytes.
func (img *Image) Dump(w io.Writer) error {
	addrs := sortedAddrs(img.Bytes)
	bw := bufio.NewWriter(w)
	var upper uint32
	haveUpper := false

	for i := 0; i < len(addrs); {
		start := addrs[i]
		if !haveUpper || start>>16 != upper {
			upper = start >> 16
			haveUpper = true
			writeRecord(bw, 0, IHEX_EXT_LINEAR, []byte{byte(upper >> 8), byte(upper)})
		}
		data := []byte{img.Bytes[start]}
		i++
		for i < len(addrs) && len(data) < 16 && addrs[i] == start+uint32(len(data)) && addrs[i]>>16 == upper {
			data = append(data, img.Bytes[addrs[i]])
			i++
		}
		writeRecord(bw, uint16(start), IHEX_DATA, data)
	}
	if img.HasEntry {
		e := img.Entry
		writeRecord(bw, 0, IHEX_START_LINEAR, []byte{byte(e >> 24), byte(e >> 16), byte(e >> 8), byte(e)})
	}
	writeRecord(bw, 0, IHEX_EOF, nil)
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, offset uint16, typ byte, data []byte) {
	raw := make([]byte, 0, len(data)+5)
	raw = append(raw, byte(len(data)), byte(offset>>8), byte(offset), typ)
	raw = append(raw, data...)
	var sum byte
	for _, b := range raw {
		sum += b
	}
	raw = append(raw, -sum)
	w.WriteByte(':')
	w.WriteString(strings.ToUpper(hex.EncodeToString(raw)))
	w.WriteByte('\n')
}

func sortedAddrs(m map[uint32]byte) []uint32 {
	out := make([]uint32, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
