package report

import (
	"encoding/xml"
	"errors"
	"io"
)

// Report is a fully decoded scan report.
type Report struct {
	XMLName     xml.Name     `xml:"scanreport"`
	Version     string       `xml:"version,attr"`
	RunID       string       `xml:"run_id"`
	Creator     Creator      `xml:"creator"`
	Signature   Signature    `xml:"signature"`
	FileObjects []FileObject `xml:"fileobject"`
}

func Read(r io.Reader) (*Report, error) {
	var rep Report
	if err := xml.NewDecoder(r).Decode(&rep); err != nil {
		return nil, err
	}
	if rep.Version == "" {
		return nil, errors.New("missing report version")
	}
	return &rep, nil
}

// Detections returns the file objects whose verdict is VerdictDetected.
func (r *Report) Detections() []FileObject {
	var out []FileObject
	for _, obj := range r.FileObjects {
		if obj.Verdict == VerdictDetected {
			out = append(out, obj)
		}
	}
	return out
}
