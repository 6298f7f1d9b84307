package segments

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/skillsenselab/vbdiar/errors"
)

// RTTM writer conventions: channel written for turns that carry none,
// and fractional digits for onset/duration. Two digits are exact at a
// 10 ms frame step.
const (
	rttmDefaultChannel = 1
	rttmPrecision      = 2
)

// WriteRTTM emits one SPEAKER line per turn:
//
//	SPEAKER <rec> <channel> <onset> <duration> <NA> <NA> <speaker> <NA> <NA>
//
// Turns parsed from an RTTM document keep their channel; turns built in
// memory default to channel 1.
func WriteRTTM(w io.Writer, recordingID string, segs []Segment) error {
	bw := bufio.NewWriter(w)
	for _, s := range segs {
		ch := s.Channel
		if ch == 0 {
			ch = rttmDefaultChannel
		}
		_, err := fmt.Fprintf(bw, "SPEAKER %s %d %.*f %.*f <NA> <NA> %s <NA> <NA>\n",
			recordingID, ch,
			rttmPrecision, s.Start,
			rttmPrecision, s.Duration(),
			s.Speaker)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseRTTM reads SPEAKER lines grouped by recording ID. Lines of other
// types, blank lines, and comments are skipped; turns keep file order,
// which downstream first-appearance speaker numbering relies on.
func ParseRTTM(r io.Reader) (map[string][]Segment, error) {
	recordings := make(map[string][]Segment)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";;") || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] != "SPEAKER" {
			continue
		}
		if len(fields) < 8 {
			return nil, errors.InvalidFormat("rttm", fmt.Sprintf("SPEAKER line with at least 8 fields (line %d)", lineNo))
		}
		recID := fields[1]
		channel, err := strconv.Atoi(fields[2])
		if err != nil || channel < 0 {
			return nil, errors.InvalidFormat("rttm", fmt.Sprintf("numeric channel (line %d)", lineNo))
		}
		onset, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, errors.InvalidFormat("rttm", fmt.Sprintf("numeric onset (line %d)", lineNo))
		}
		dur, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, errors.InvalidFormat("rttm", fmt.Sprintf("numeric duration (line %d)", lineNo))
		}
		if onset < 0 || dur < 0 {
			return nil, errors.InvalidInput("rttm", fmt.Sprintf("negative onset or duration (line %d)", lineNo))
		}
		recordings[recID] = append(recordings[recID], Segment{
			Speaker: fields[7],
			Channel: channel,
			Start:   onset,
			End:     onset + dur,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.InvalidFormat("rttm", "readable input").WithCause(err)
	}
	return recordings, nil
}

// LoadRTTM reads an RTTM file from disk.
func LoadRTTM(path string) (map[string][]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("rttm file", path)
		}
		return nil, errors.Storage("open", path, err)
	}
	defer f.Close()
	return ParseRTTM(f)
}

// SaveRTTM writes one recording's turns to an RTTM file on disk.
func SaveRTTM(path, recordingID string, segs []Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Storage("create", path, err)
	}
	defer f.Close()
	if err := WriteRTTM(f, recordingID, segs); err != nil {
		return errors.Storage("write", path, err)
	}
	return nil
}
