package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"ecframe-go/dataframe"
)

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func employees(t *testing.T, withEvent bool) *dataframe.DataFrame {
	t.Helper()
	df := dataframe.New("Employees")
	mustNoErr(t, df.AddStringColumn("Name"))
	mustNoErr(t, df.AddLongColumn("EmployeeId"))
	mustNoErr(t, df.AddDateColumn("HireDate"))
	mustNoErr(t, df.AddStringColumn("Dept"))
	mustNoErr(t, df.AddDoubleColumn("Salary"))
	rows := [][]any{
		{"Alice", 1234, date(2020, 1, 1), "Accounting", 110000.0},
		{"Bob", 1233, date(2010, 1, 1), "Bee-bee-boo-boo", 100000.0},
		{"Carl", 10000, date(2005, 11, 21), "Controllers", 130000.0},
		{"Diane", 10001, date(2012, 9, 20), "", 130000.0},
		{"Ed", 10002, nil, "", 0.0},
	}
	events := []any{
		time.Date(2020, 10, 11, 1, 2, 3, 0, time.UTC),
		time.Date(2020, 11, 22, 13, 25, 36, 0, time.UTC),
		nil,
		time.Date(2022, 8, 21, 4, 5, 6, 0, time.UTC),
		time.Date(2022, 10, 11, 21, 32, 53, 0, time.UTC),
	}
	if withEvent {
		mustNoErr(t, df.AddDateTimeColumn("Event"))
	}
	for i, r := range rows {
		if withEvent {
			r = append(r, events[i])
		}
		mustNoErr(t, df.AddRow(r...))
	}
	return df
}

func TestCSV(t *testing.T) {
	got, err := CSVString(employees(t, true), 0)
	mustNoErr(t, err)
	want := "Name,EmployeeId,HireDate,Dept,Salary,Event\n" +
		"\"Alice\",1234,2020-01-01,\"Accounting\",110000.0,2020-10-11T01:02:03\n" +
		"\"Bob\",1233,2010-01-01,\"Bee-bee-boo-boo\",100000.0,2020-11-22T13:25:36\n" +
		"\"Carl\",10000,2005-11-21,\"Controllers\",130000.0,\n" +
		"\"Diane\",10001,2012-09-20,\"\",130000.0,2022-08-21T04:05:06\n" +
		"\"Ed\",10002,,\"\",0.0,2022-10-11T21:32:53\n"
	if got != want {
		t.Fatalf("unexpected csv\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestCSVWithLimit(t *testing.T) {
	got, err := CSVString(employees(t, false), 3)
	mustNoErr(t, err)
	want := "Name,EmployeeId,HireDate,Dept,Salary\n" +
		"\"Alice\",1234,2020-01-01,\"Accounting\",110000.0\n" +
		"\"Bob\",1233,2010-01-01,\"Bee-bee-boo-boo\",100000.0\n" +
		"\"Carl\",10000,2005-11-21,\"Controllers\",130000.0\n"
	if got != want {
		t.Fatalf("unexpected csv\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestCSVWithNulls(t *testing.T) {
	df := dataframe.New("Employees")
	mustNoErr(t, df.AddStringColumn("Name"))
	mustNoErr(t, df.AddLongColumn("EmployeeId"))
	mustNoErr(t, df.AddDateColumn("HireDate"))
	mustNoErr(t, df.AddStringColumn("Dept"))
	mustNoErr(t, df.AddDoubleColumn("Salary"))
	mustNoErr(t, df.AddRow("Alice", 1234, date(2020, 1, 1), "Accounting", 110000.0))
	mustNoErr(t, df.AddRow("Bob", nil, date(2010, 1, 1), "Bee-bee-boo-boo", 100000.0))
	mustNoErr(t, df.AddRow("Carl", 10000, nil, "Controllers", 130000.0))
	mustNoErr(t, df.AddRow("Diane", 10001, date(2012, 9, 20), "", nil))
	mustNoErr(t, df.AddRow("Ed", 10002, nil, "", 0.0))
	mustNoErr(t, df.AddRow(nil, 10003, nil, `say "hi"`, 1.5))

	got, err := CSVString(df, 0)
	mustNoErr(t, err)
	want := "Name,EmployeeId,HireDate,Dept,Salary\n" +
		"\"Alice\",1234,2020-01-01,\"Accounting\",110000.0\n" +
		"\"Bob\",,2010-01-01,\"Bee-bee-boo-boo\",100000.0\n" +
		"\"Carl\",10000,,\"Controllers\",130000.0\n" +
		"\"Diane\",10001,2012-09-20,\"\",\n" +
		"\"Ed\",10002,,\"\",0.0\n" +
		",10003,,\"say \"\"hi\"\"\",1.5\n"
	if got != want {
		t.Fatalf("unexpected csv\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	mustNoErr(t, RenderTable(&buf, employees(t, false), "rounded", 2))
	out := buf.String()
	for _, s := range []string{"Name", "Alice", "110000.0", "Bob", "3 more rows"} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in table output:\n%s", s, out)
		}
	}
	if strings.Contains(out, "Carl") {
		t.Errorf("row limit ignored:\n%s", out)
	}

	buf.Reset()
	mustNoErr(t, RenderTable(&buf, employees(t, false), "no-such-style", 0))
	if !strings.Contains(buf.String(), "NULL") || !strings.Contains(buf.String(), "Ed") {
		t.Errorf("expected every row with NULL for void:\n%s", buf.String())
	}
}
