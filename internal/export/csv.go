package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/Simplici0/quickestimate/internal/lead"
)

// CSVContentType is served with CSV exports.
const CSVContentType = "text/csv; charset=utf-8"

// plainFloats writes amounts in plain decimal notation, never with an
// exponent.
var plainFloats = csvutil.MarshalFunc(func(f float64) ([]byte, error) {
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
})

// WriteCSV writes a header line and one line per record.
func WriteCSV(w io.Writer, records []lead.Record) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.WithMarshalers(plainFloats)

	if err := enc.EncodeHeader(Row{}); err != nil {
		return eris.Wrap(err, "csv: encode header")
	}
	for _, row := range Rows(records) {
		if err := enc.Encode(row); err != nil {
			return eris.Wrapf(err, "csv: encode lead %d", row.ID)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush")
}
