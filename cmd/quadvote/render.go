// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/quadvote/api"
	"github.com/blinklabs-io/quadvote/governance"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	outputJson  = "json"
	outputTable = "table"
)

var (
	openStyle     = color.New(color.FgGreen, color.Bold)
	closedStyle   = color.New(color.Faint)
	leadingStyle  = color.New(color.FgYellow, color.Bold)
	mismatchStyle = color.New(color.FgRed)
	okStyle       = color.New(color.FgGreen)
	labelStyle    = color.New(color.Bold)
)

// render writes v to w in the requested output format. Values without a
// table layout are written as JSON
func render(w io.Writer, format string, v any) error {
	switch format {
	case outputJson:
		return renderJson(w, v)
	case outputTable:
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	var out string
	switch val := v.(type) {
	case []*governance.Dao:
		out = daoTable(val)
	case *governance.Dao:
		out = detailTable([][2]string{
			{"ID", val.Id.String()},
			{"Name", val.Name},
			{"Admin", val.Admin},
			{"Proposals", strconv.FormatUint(val.ProposalCount, 10)},
			{"Created", formatTime(val.CreatedAt)},
		})
	case []*governance.Proposal:
		out = proposalTable(val)
	case *governance.Proposal:
		rows := [][2]string{
			{"ID", val.Id.String()},
			{"DAO", val.DaoId.String()},
			{"Sequence", strconv.FormatUint(val.Sequence, 10)},
			{"Creator", val.Creator},
			{"Metadata", val.Metadata},
			{"Options", strings.Join(val.Options, ", ")},
			{"Status", statusString(val.Status)},
			{"Created", formatTime(val.CreatedAt)},
		}
		if val.ExpiresAt != nil {
			rows = append(rows, [2]string{"Expires", formatTime(*val.ExpiresAt)})
		}
		if val.ClosedAt != nil {
			rows = append(rows, [2]string{"Closed", formatTime(*val.ClosedAt)})
		}
		out = detailTable(rows)
	case []*governance.Vote:
		out = voteTable(val)
	case *governance.Vote:
		out = voteTable([]*governance.Vote{val})
	case *governance.Credit:
		balance := strconv.FormatUint(val.Balance, 10)
		if val.Default {
			balance += " (default)"
		}
		out = detailTable([][2]string{
			{"DAO", val.DaoId.String()},
			{"Voter", val.Voter},
			{"Balance", balance},
			{"Granted", strconv.FormatUint(val.Granted, 10)},
			{"Spent", strconv.FormatUint(val.Spent, 10)},
			{"Max votes", strconv.FormatUint(val.MaxVotes, 10)},
		})
	case *governance.Tally:
		out = tallyTable(val)
	case *governance.AuditReport:
		out = auditTable(val)
	case api.IdResponse:
		out = detailTable([][2]string{{"ID", val.Id}})
	case api.GrantCreditsResponse:
		out = detailTable([][2]string{
			{"DAO", val.DaoId},
			{"Voter", val.Voter},
			{"Balance", strconv.FormatUint(val.Balance, 10)},
		})
	default:
		return renderJson(w, v)
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

func renderJson(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

func detailTable(rows [][2]string) string {
	t := newTable()
	t.Style().Options.SeparateColumns = false
	t.Style().Options.DrawBorder = false
	for _, row := range rows {
		t.AppendRow(table.Row{labelStyle.Sprint(row[0]), row[1]})
	}
	return t.Render()
}

func daoTable(daos []*governance.Dao) string {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Name", "Admin", "Proposals", "Created"})
	for _, dao := range daos {
		t.AppendRow(table.Row{
			dao.Id.String(),
			dao.Name,
			dao.Admin,
			dao.ProposalCount,
			formatTime(dao.CreatedAt),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	return t.Render()
}

func proposalTable(proposals []*governance.Proposal) string {
	t := newTable()
	t.AppendHeader(table.Row{"#", "ID", "Creator", "Status", "Metadata", "Expires"})
	for _, p := range proposals {
		expires := "-"
		if p.ExpiresAt != nil {
			expires = formatTime(*p.ExpiresAt)
		}
		t.AppendRow(table.Row{
			p.Sequence,
			p.Id.String(),
			p.Creator,
			statusString(p.Status),
			p.Metadata,
			expires,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: 40},
	})
	return t.Render()
}

func voteTable(votes []*governance.Vote) string {
	t := newTable()
	t.AppendHeader(table.Row{"Voter", "Option", "Votes", "Credits", "Cast"})
	for _, v := range votes {
		t.AppendRow(table.Row{
			v.Voter,
			v.Option,
			v.VotesCast,
			v.CreditsSpent,
			formatTime(v.CastAt),
		})
	}
	return t.Render()
}

func tallyTable(tally *governance.Tally) string {
	t := newTable()
	t.SetTitle(
		"Proposal %s (%s)",
		tally.ProposalId.String(),
		statusString(tally.Status),
	)
	t.AppendHeader(table.Row{"Code", "Option", "Votes", "Voters", "Credits"})
	for _, opt := range tally.Options {
		label := opt.Label
		for _, code := range tally.Leading {
			if code == int(opt.Code) {
				label = leadingStyle.Sprint(label + " *")
				break
			}
		}
		t.AppendRow(table.Row{opt.Code, label, opt.Votes, opt.Voters, opt.Credits})
	}
	t.AppendFooter(table.Row{
		"",
		"Total",
		tally.TotalVotes,
		tally.Voters,
		tally.TotalCredits,
	})
	return t.Render()
}

func auditTable(report *governance.AuditReport) string {
	summary := detailTable([][2]string{
		{"DAO", report.DaoId.String()},
		{"Proposals", strconv.Itoa(report.Proposals)},
		{"Votes", strconv.Itoa(report.Votes)},
		{"Receipts", strconv.Itoa(report.Receipts)},
		{"Voters", strconv.Itoa(report.Voters)},
	})
	if report.Ok() {
		return summary + "\n" + okStyle.Sprint("no mismatches found")
	}
	t := newTable()
	t.AppendHeader(table.Row{"Subject", "Detail"})
	for _, m := range report.Mismatches {
		t.AppendRow(table.Row{m.Subject, mismatchStyle.Sprint(m.Detail)})
	}
	return summary + "\n" + t.Render()
}

func statusString(status string) string {
	switch status {
	case governance.StatusOpen:
		return openStyle.Sprint(status)
	case governance.StatusClosed:
		return closedStyle.Sprint(status)
	}
	return status
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
