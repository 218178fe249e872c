package commands

import (
	"fmt"
	"testing"
	"time"

	"github.com/jboxsh/jbox/core/vos/vostest"
	"github.com/stretchr/testify/assert"
)

var referenceTime = time.Date(2006, time.January, 2, 15, 4, 5, 0, time.UTC)

func ExampleDate() {
	defer func(old func() time.Time) { now = old }(now)
	now = func() time.Time { return referenceTime }

	for _, format := range []string{"+" + DefaultDateFormat, "+%F %T", "+day %j of %Y, 100%%"} {
		cmd := vostest.Command(Date, "date", format)
		fmt.Print(string(cmd.CombinedOutput()))
	}

	// Output: Mon Jan  2 15:04:05 UTC 2006
	// 2006-01-02 15:04:05
	// day 002 of 2006, 100%
}

func TestDate_format(t *testing.T) {
	defer func(old func() time.Time) { now = old }(now)
	now = func() time.Time { return referenceTime }

	cases := map[string]string{
		"%a %A":     "Mon Monday",
		"%b %B %h":  "Jan January Jan",
		"%C%y":      "2006",
		"%d/%m":     "02/01",
		"%D":        "01/02/06",
		"%e":        " 2",
		"%H %I %k":  "15 03 15",
		"%M:%S":     "04:05",
		"%N":        "000000000",
		"%p":        "PM",
		"%s":        "1136214245",
		"%u %w":     "1 1",
		"%z %Z":     "+0000 UTC",
		"%n%t":      "\n\t",
		"%q":        "%q",
		"trailing%": "trailing%",
		"%c":        "Mon Jan  2 15:04:05 2006",
	}

	for format, want := range cases {
		t.Run(format, func(t *testing.T) {
			cmd := vostest.Command(Date, "date", "+"+format)

			out := cmd.CombinedOutput()

			assert.Equal(t, 0, cmd.ExitStatus)
			assert.Equal(t, want+"\n", string(out))
		})
	}
}

func TestDate(t *testing.T) {
	defer func(old func() time.Time) { now = old }(now)
	now = func() time.Time {
		return referenceTime.In(time.FixedZone("EST", -5*60*60))
	}

	cases := map[string]struct {
		args   []string
		status int
		want   string
	}{
		"default": {nil, 0, "Mon Jan  2 10:04:05 EST 2006\n"},
		"utc":     {[]string{"-u"}, 0, "Mon Jan  2 15:04:05 UTC 2006\n"},
		"rfc":     {[]string{"-R"}, 0, "Mon, 02 Jan 2006 10:04:05 -0500\n"},
		"iso":     {[]string{"-I"}, 0, "2006-01-02\n"},
		"format":  {[]string{"-u", "+%H:%M"}, 0, "15:04\n"},
		"invalid": {[]string{"tomorrow"}, 1, "date: invalid date 'tomorrow'\n"},
		"extra":   {[]string{"+%s", "+%s"}, 1, "date: extra operand '+%s'\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cmd := vostest.Command(Date, "date", tc.args...)

			out := cmd.CombinedOutput()

			assert.Equal(t, tc.status, cmd.ExitStatus)
			assert.Equal(t, tc.want, string(out))
		})
	}
}

func TestSleep(t *testing.T) {
	defer func(old func(time.Duration)) { sleepFunc = old }(sleepFunc)
	var slept []time.Duration
	sleepFunc = func(d time.Duration) { slept = append(slept, d) }

	cases := map[string]struct {
		args   []string
		status int
		want   string
	}{
		"whole":    {[]string{"2"}, 0, ""},
		"fraction": {[]string{"0.25"}, 0, ""},
		"missing":  {nil, 1, "sleep: missing operand\n"},
		"extra":    {[]string{"1", "2"}, 1, "sleep: extra operand '2'\n"},
		"invalid":  {[]string{"soon"}, 1, "sleep: invalid time interval 'soon'\n"},
		"nan":      {[]string{"NaN"}, 1, "sleep: invalid time interval 'NaN'\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cmd := vostest.Command(Sleep, "sleep", tc.args...)

			out := cmd.CombinedOutput()

			assert.Equal(t, tc.status, cmd.ExitStatus)
			assert.Equal(t, tc.want, string(out))
		})
	}

	assert.ElementsMatch(t, []time.Duration{2 * time.Second, 250 * time.Millisecond}, slept)
}
