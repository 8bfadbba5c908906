package cube

import (
	"math"
	"strconv"
	"time"

	"github.com/ansel1/merry"
	"github.com/valyala/fastjson"
)

var ErrBadDocument = merry.New("malformed cube document")

// MarshalJSON renders the cube as a JSON document. NaN cells are
// written as null, which encoding/json cannot represent, so the
// document is built by hand.
func MarshalJSON(c *Cube) []byte {
	var b []byte
	b = append(b, `{"rows":`...)
	b = strconv.AppendInt(b, int64(c.Rows), 10)
	b = append(b, `,"cols":`...)
	b = strconv.AppendInt(b, int64(c.Cols), 10)
	b = append(b, `,"layers":[`...)

	for i, l := range c.Layers {
		if i != 0 {
			b = append(b, ',')
		}
		b = append(b, `{"name":`...)
		b = strconv.AppendQuoteToASCII(b, l.Name)
		if !l.Time.IsZero() {
			b = append(b, `,"time":`...)
			b = strconv.AppendQuoteToASCII(b, l.Time.UTC().Format(time.RFC3339))
		}
		b = append(b, `,"values":[`...)
		for j, v := range l.Values {
			if j != 0 {
				b = append(b, ',')
			}
			if math.IsNaN(v) {
				b = append(b, "null"...)
			} else {
				b = strconv.AppendFloat(b, v, 'f', -1, 64)
			}
		}
		b = append(b, "]}"...)
	}

	b = append(b, "]}"...)
	return b
}

// UnmarshalJSON parses a cube document produced by MarshalJSON.
// null cells become NaN.
func UnmarshalJSON(data []byte) (*Cube, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, ErrBadDocument.Here().WithCause(err)
	}

	c := &Cube{
		Rows: v.GetInt("rows"),
		Cols: v.GetInt("cols"),
	}

	layers := v.GetArray("layers")
	for _, lv := range layers {
		l := Layer{Name: string(lv.GetStringBytes("name"))}
		if ts := lv.GetStringBytes("time"); len(ts) > 0 {
			t, err := time.Parse(time.RFC3339, string(ts))
			if err != nil {
				return nil, ErrBadDocument.Here().WithMessagef("layer %q: bad time %q", l.Name, ts)
			}
			l.Time = t
		}
		vals := lv.GetArray("values")
		l.Values = make([]float64, len(vals))
		for i, cell := range vals {
			if cell.Type() == fastjson.TypeNull {
				l.Values[i] = math.NaN()
				continue
			}
			f, err := cell.Float64()
			if err != nil {
				return nil, ErrBadDocument.Here().WithCause(err)
			}
			l.Values[i] = f
		}
		c.Layers = append(c.Layers, l)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
