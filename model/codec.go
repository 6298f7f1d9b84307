package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/skillsenselab/vbdiar/errors"
)

// Text artifact section tags. The UBM layout mirrors the usual diagonal
// GMM export: weights, means pre-multiplied by inverse variances, and
// inverse variances; plain means are derived on load.
const (
	tagWeights      = "<Weights>"
	tagMeansInvVars = "<MeansInvVars>"
	tagInvVars      = "<InvVars>"
	tagRank         = "<Rank>"
	tagBasis        = "<Basis>"
)

// ReadUBM parses a UBM from its text form.
func ReadUBM(r io.Reader) (*UBM, error) {
	doc, err := readAll(r)
	if err != nil {
		return nil, err
	}

	weights, err := parseVector(doc, tagWeights)
	if err != nil {
		return nil, err
	}
	miv, mivRows, mivCols, err := parseMatrix(doc, tagMeansInvVars)
	if err != nil {
		return nil, err
	}
	iv, ivRows, ivCols, err := parseMatrix(doc, tagInvVars)
	if err != nil {
		return nil, err
	}

	k := len(weights)
	if mivRows != k || ivRows != k {
		return nil, errors.ModelFormatf("ubm has %d weights but %d mean rows and %d variance rows", k, mivRows, ivRows)
	}
	if mivCols != ivCols {
		return nil, errors.ModelFormatf("ubm mean rows have %d columns but variance rows have %d", mivCols, ivCols)
	}

	// means = meansInvVars / invVars, elementwise
	means := make([]float64, len(miv))
	for i := range miv {
		if iv[i] == 0 {
			return nil, errors.ModelFormatf("ubm component %d dim %d has zero inverse variance", i/mivCols, i%mivCols)
		}
		means[i] = miv[i] / iv[i]
	}
	return NewUBM(weights, means, iv, k, mivCols)
}

// WriteUBM emits a UBM in the text form ReadUBM accepts. Values use the
// shortest representation that round-trips exactly.
func WriteUBM(w io.Writer, u *UBM) error {
	bw := bufio.NewWriter(w)
	writeVector(bw, tagWeights, u.Weights)
	writeMatrix(bw, tagMeansInvVars, u.meansInvVars, u.K, u.D)
	writeMatrix(bw, tagInvVars, u.InvVars, u.K, u.D)
	return bw.Flush()
}

// ReadExtractor parses an extractor from its text form.
func ReadExtractor(r io.Reader) (*Extractor, error) {
	doc, err := readAll(r)
	if err != nil {
		return nil, err
	}

	rank, err := parseIntAfter(doc, tagRank)
	if err != nil {
		return nil, err
	}
	basis, rows, cols, err := parseMatrix(doc, tagBasis)
	if err != nil {
		return nil, err
	}
	if rows != rank {
		return nil, errors.ModelFormatf("extractor declares rank %d but basis has %d rows", rank, rows)
	}
	return NewExtractor(rank, cols, basis)
}

// WriteExtractor emits an extractor in the text form ReadExtractor accepts.
func WriteExtractor(w io.Writer, e *Extractor) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %d\n", tagRank, e.Rank)
	writeMatrix(bw, tagBasis, e.Basis, e.Rank, e.Width)
	return bw.Flush()
}

// LoadUBM reads a UBM from a text file on disk.
func LoadUBM(path string) (*UBM, error) {
	f, err := openModelFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	u, err := ReadUBM(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// LoadExtractor reads an extractor from a text file on disk.
func LoadExtractor(path string) (*Extractor, error) {
	f, err := openModelFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	e, err := ReadExtractor(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

func openModelFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("model file", path)
		}
		return nil, errors.Storage("open", path, err)
	}
	return f, nil
}

// --- text parsing helpers ---

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.ModelFormat("unable to read model artifact").WithCause(err)
	}
	return string(data), nil
}

// section extracts the bracketed payload that follows tag.
func section(doc, tag string) (string, error) {
	i := strings.Index(doc, tag)
	if i < 0 {
		return "", errors.ModelFormatf("missing %s section", tag)
	}
	rest := doc[i+len(tag):]
	open := strings.Index(rest, "[")
	if open < 0 {
		return "", errors.ModelFormatf("%s section has no opening bracket", tag)
	}
	if strings.TrimSpace(rest[:open]) != "" {
		return "", errors.ModelFormatf("%s section has stray tokens before its matrix", tag)
	}
	end := strings.Index(rest[open:], "]")
	if end < 0 {
		return "", errors.ModelFormatf("%s section is not terminated", tag)
	}
	return rest[open+1 : open+end], nil
}

func parseVector(doc, tag string) ([]float64, error) {
	blob, err := section(doc, tag)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(blob)
	if len(fields) == 0 {
		return nil, errors.ModelFormatf("%s section is empty", tag)
	}
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.ModelFormatf("%s section has non-numeric token %q", tag, f)
		}
		vals[i] = v
	}
	return vals, nil
}

// parseMatrix returns the flat row-major values plus row and column
// counts. One non-empty line per row; content on the bracket lines
// counts as rows too.
func parseMatrix(doc, tag string) ([]float64, int, int, error) {
	blob, err := section(doc, tag)
	if err != nil {
		return nil, 0, 0, err
	}

	var flat []float64
	rows, cols := 0, 0
	for _, line := range strings.Split(blob, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if rows == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, 0, 0, errors.ModelFormatf("%s section row %d has %d columns, want %d", tag, rows, len(fields), cols)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, 0, 0, errors.ModelFormatf("%s section has non-numeric token %q", tag, f)
			}
			flat = append(flat, v)
		}
		rows++
	}
	if rows == 0 {
		return nil, 0, 0, errors.ModelFormatf("%s section is empty", tag)
	}
	return flat, rows, cols, nil
}

func parseIntAfter(doc, tag string) (int, error) {
	i := strings.Index(doc, tag)
	if i < 0 {
		return 0, errors.ModelFormatf("missing %s section", tag)
	}
	fields := strings.Fields(doc[i+len(tag):])
	if len(fields) == 0 {
		return 0, errors.ModelFormatf("%s section has no value", tag)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, errors.ModelFormatf("%s section has non-integer token %q", tag, fields[0])
	}
	return n, nil
}

func writeVector(bw *bufio.Writer, tag string, vals []float64) {
	fmt.Fprintf(bw, "%s [", tag)
	for _, v := range vals {
		fmt.Fprintf(bw, " %s", strconv.FormatFloat(v, 'g', -1, 64))
	}
	fmt.Fprint(bw, " ]\n")
}

func writeMatrix(bw *bufio.Writer, tag string, flat []float64, rows, cols int) {
	fmt.Fprintf(bw, "%s [\n", tag)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				fmt.Fprint(bw, " ")
			}
			fmt.Fprint(bw, strconv.FormatFloat(flat[r*cols+c], 'g', -1, 64))
		}
		fmt.Fprint(bw, "\n")
	}
	fmt.Fprint(bw, "]\n")
}
