package output

import (
	"fmt"
	"io"

	"github.com/pranshuparmar/whoisit/pkg/model"
)

var (
	colorResetShort = "\033[0m"
	colorRedShort   = "\033[31m"
	colorDimShort   = "\033[2m"
	colorGreenShort = "\033[32m"
)

// RenderResponse prints an ident reply on one line, highlighting the user or
// the error code.
func RenderResponse(w io.Writer, r model.Response, colorEnabled bool) {
	if !colorEnabled {
		fmt.Fprintln(w, r.String())
		return
	}
	if r.Kind == model.ResponseUserID {
		fmt.Fprintf(w, "%s%s : %s : %s :%s %s%s%s\n",
			colorDimShort, r.Query, r.Kind, r.OS, colorResetShort,
			colorGreenShort, r.UserID, colorResetShort)
		return
	}
	fmt.Fprintf(w, "%s%s : %s :%s %s%s%s\n",
		colorDimShort, r.Query, r.Kind, colorResetShort,
		colorRedShort, r.Error, colorResetShort)
}
