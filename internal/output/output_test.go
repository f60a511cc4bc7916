package output

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/whoisit/pkg/model"
)

func TestRenderResponse_Plain(t *testing.T) {
	var buf bytes.Buffer
	RenderResponse(&buf, model.UserIDResponse("4000, 5000", "alice"), false)
	RenderResponse(&buf, model.ErrorResponse("4000, 5000", model.ErrorNoUser), false)
	assert.Equal(t, "4000, 5000 : USERID : UNIX : alice\n4000, 5000 : ERROR : NO-USER\n", buf.String())
}

func TestRenderResponse_Color(t *testing.T) {
	var buf bytes.Buffer
	RenderResponse(&buf, model.UserIDResponse("4000, 5000", "alice"), true)
	assert.Contains(t, buf.String(), colorGreenShort+"alice"+colorResetShort)

	buf.Reset()
	RenderResponse(&buf, model.ErrorResponse("1, 2", model.ErrorInvalidPort), true)
	assert.Contains(t, buf.String(), colorRedShort+"INVALID-PORT"+colorResetShort)
}

func TestPrintResult(t *testing.T) {
	res := model.Result{
		Remote:    "127.0.0.1:80",
		Target:    "4TCP@127.0.0.1:80",
		LocalPort: 4000,
		Owner:     "alice",
		Found:     true,
		Records: []model.Record{
			{User: "alice", Name: "127.0.0.1:4000->127.0.0.1:80"},
			{Name: "127.0.0.1:4001->127.0.0.1:80"},
		},
		Warnings: []string{"no login reported for 127.0.0.1:4001->127.0.0.1:80"},
	}
	var buf bytes.Buffer
	PrintResult(&buf, res, false)
	assert.Equal(t, strings.Join([]string{
		"127.0.0.1:80 (4TCP@127.0.0.1:80)",
		"  └─ local port 4000 owned by alice",
		"  ├─ 127.0.0.1:4000->127.0.0.1:80 alice",
		"  └─ 127.0.0.1:4001->127.0.0.1:80 ?",
		"warning: no login reported for 127.0.0.1:4001->127.0.0.1:80",
		"",
	}, "\n"), buf.String())
}

func TestPrintResult_NotFoundAndLimit(t *testing.T) {
	res := model.Result{Remote: "[::1]:80", Target: "6TCP@[::1]:80", LocalPort: 9}
	for i := range recordLimit + 5 {
		res.Records = append(res.Records, model.Record{User: "u", Name: fmt.Sprintf("[::1]:%d->[::1]:80", 1000+i)})
	}
	var buf bytes.Buffer
	PrintResult(&buf, res, false)
	out := buf.String()
	assert.Contains(t, out, "local port 9: no owner found")
	assert.Contains(t, out, "... and 5 more")
	assert.NotContains(t, out, fmt.Sprintf("%d->", 1000+recordLimit))
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(model.UserIDResponse("1, 2", "alice"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"1, 2","kind":"USERID","os":"UNIX","user_id":"alice"}`, out)
}
