package quotes

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const sample = `Processing: https://media.example.com/rec?k=one
Analysis Result:
#### 1. **Billable Call Determination:**
Thus, this is a **Billable Call**.
- Billable Call: Yes
- Application Submitted: No
   - a. Monthly Premium: $30.14
   - b. Insurance Carrier: CVS Health
   - c. Coverage Amount: $2,000
   - d. Policy Type: Level
   - e. Reason for not purchasing: Needed to talk to her son.
   - f. Follow-up set: Yes
--------------------------------------------------
Recording URL: https://media.example.com/rec?k=two
**4. Quote Provided Determination:**
- **b. Insurance Carrier:** Aetna.
- **a. Monthly Premium:** $80.94.
- **e. Reason for not purchasing the policy:** Consulting her daughter.
- **f. Was a follow-up set?** Yes, next day around 2-3 PM.
--------------------------------------------------
`

func TestParse(t *testing.T) {
	quotes, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if len(quotes) != 2 {
		t.Fatalf("quotes = %d, want 2", len(quotes))
	}

	tests := []struct {
		idx    int
		column string
		want   string
	}{
		{0, "Recording", "https://media.example.com/rec?k=one"},
		{0, "Billable Call", "Yes"},
		{0, "Application Submitted", "No"},
		{0, "Monthly Premium", "$30.14"},
		{0, "Coverage Amount", "$2,000"},
		{0, "Reason for not purchasing", "Needed to talk to her son"},
		{0, "Follow-up set", "Yes"},
		{1, "Recording", "https://media.example.com/rec?k=two"},
		{1, "Insurance Carrier", "Aetna"},
		{1, "Monthly Premium", "$80.94"},
		{1, "Reason for not purchasing", "Consulting her daughter"},
		{1, "Follow-up set", "Yes, next day around 2-3 PM"},
		{1, "Billable Call", ""},
		{1, "Policy Type", ""},
	}
	for _, tt := range tests {
		if got := quotes[tt.idx].Get(tt.column); got != tt.want {
			t.Errorf("quote %d %s = %q, want %q", tt.idx, tt.column, got, tt.want)
		}
	}
}

func TestParse_NoRecords(t *testing.T) {
	quotes, err := Parse(strings.NewReader("Billable Call: Yes\nno marker here\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(quotes) != 0 {
		t.Errorf("quotes = %d, want 0", len(quotes))
	}
}

func TestAppendSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.xlsx")
	quotes, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if err := AppendSheet(path, "Sheet1", quotes[:1]); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := AppendSheet(path, "Sheet1", quotes[1:]); err != nil {
		t.Fatalf("second append: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2", len(rows))
	}
	if rows[0][0] != "Recording" || rows[0][8] != "Follow-up set" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][4] != "Aetna" {
		t.Errorf("carrier = %q", rows[2][4])
	}
}
