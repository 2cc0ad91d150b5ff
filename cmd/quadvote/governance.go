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
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/quadvote/api"
	"github.com/blinklabs-io/quadvote/governance"
	"github.com/blinklabs-io/quadvote/internal/node"
	"github.com/spf13/cobra"
)

type localFunc func(context.Context, *governance.Service) (any, error)

// runLocal runs fn against the configured database and prints its result in
// the selected output format
func runLocal(cmd *cobra.Command, fn localFunc) {
	cfg := configFromContext(cmd)
	logger := commonRun(os.Stderr)
	svc, closeFn, err := node.OpenLocal(cfg, logger)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	ret, err := fn(cmd.Context(), svc)
	if closeErr := closeFn(); closeErr != nil {
		slog.Error("failed to close database", "error", closeErr)
	}
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	printResult(ret)
}

func printResult(v any) {
	if err := render(os.Stdout, globalFlags.output, v); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func parseIdArg(kind string, value string) (governance.Id, error) {
	id, err := governance.ParseId(value)
	if err != nil {
		return id, fmt.Errorf("invalid %s id %q: %w", kind, value, err)
	}
	return id, nil
}

func daoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dao",
		Short: "Manage DAOs",
	}
	var caller, name string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a DAO administered by the caller",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				daoId, err := svc.InitDao(ctx, caller, name)
				if err != nil {
					return nil, err
				}
				return api.IdResponse{Id: daoId.String()}, nil
			})
		},
	}
	createCmd.Flags().StringVar(&caller, "caller", "", "identity of the DAO admin")
	createCmd.Flags().StringVar(&name, "name", "", "DAO name")
	_ = createCmd.MarkFlagRequired("caller")
	_ = createCmd.MarkFlagRequired("name")
	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a DAO",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				daoId, err := parseIdArg("DAO", args[0])
				if err != nil {
					return nil, err
				}
				return svc.GetDao(ctx, daoId)
			})
		},
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List DAOs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				return svc.ListDaos(ctx)
			})
		},
	}
	cmd.AddCommand(createCmd, showCmd, listCmd)
	return cmd
}

func proposalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Manage proposals",
	}
	var caller, dao, metadata string
	var options []string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a proposal in a DAO",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				daoId, err := parseIdArg("DAO", dao)
				if err != nil {
					return nil, err
				}
				proposalId, err := svc.InitProposal(ctx, caller, daoId, metadata, options)
				if err != nil {
					return nil, err
				}
				return api.IdResponse{Id: proposalId.String()}, nil
			})
		},
	}
	createCmd.Flags().StringVar(&caller, "caller", "", "identity of the proposer")
	createCmd.Flags().StringVar(&dao, "dao", "", "owning DAO id")
	createCmd.Flags().StringVar(&metadata, "metadata", "", "proposal description or URI")
	createCmd.Flags().StringArrayVar(&options, "option", nil, "vote option label, repeat for each option (default no/yes/abstain)")
	_ = createCmd.MarkFlagRequired("caller")
	_ = createCmd.MarkFlagRequired("dao")
	_ = createCmd.MarkFlagRequired("metadata")

	var closeCaller string
	closeCmd := &cobra.Command{
		Use:   "close ID",
		Short: "Close a proposal",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				proposalId, err := parseIdArg("proposal", args[0])
				if err != nil {
					return nil, err
				}
				if err := svc.CloseProposal(ctx, closeCaller, proposalId); err != nil {
					return nil, err
				}
				return svc.GetProposal(ctx, proposalId)
			})
		},
	}
	closeCmd.Flags().StringVar(&closeCaller, "caller", "", "identity of the DAO admin or proposer")
	_ = closeCmd.MarkFlagRequired("caller")

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a proposal",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				proposalId, err := parseIdArg("proposal", args[0])
				if err != nil {
					return nil, err
				}
				return svc.GetProposal(ctx, proposalId)
			})
		},
	}

	var listDao string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the proposals of a DAO",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				daoId, err := parseIdArg("DAO", listDao)
				if err != nil {
					return nil, err
				}
				return svc.ListProposals(ctx, daoId)
			})
		},
	}
	listCmd.Flags().StringVar(&listDao, "dao", "", "DAO id")
	_ = listCmd.MarkFlagRequired("dao")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Close every proposal whose voting period has ended",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				closed, err := svc.SweepExpired(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]int{"closed": closed}, nil
			})
		},
	}
	cmd.AddCommand(createCmd, closeCmd, showCmd, listCmd, sweepCmd)
	return cmd
}

func voteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Cast and inspect votes",
	}
	var caller, proposal string
	var option uint8
	var votes int64
	castCmd := &cobra.Command{
		Use:   "cast",
		Short: "Cast a quadratic vote, spending votes squared credits",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				proposalId, err := parseIdArg("proposal", proposal)
				if err != nil {
					return nil, err
				}
				return svc.CastVote(ctx, caller, proposalId, option, votes)
			})
		},
	}
	castCmd.Flags().StringVar(&caller, "caller", "", "identity of the voter")
	castCmd.Flags().StringVar(&proposal, "proposal", "", "proposal id")
	castCmd.Flags().Uint8Var(&option, "option", 0, "vote option code")
	castCmd.Flags().Int64Var(&votes, "votes", 1, "number of votes to cast")
	_ = castCmd.MarkFlagRequired("caller")
	_ = castCmd.MarkFlagRequired("proposal")
	_ = castCmd.MarkFlagRequired("option")

	var showProposal, voter string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the vote a voter cast on a proposal",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				proposalId, err := parseIdArg("proposal", showProposal)
				if err != nil {
					return nil, err
				}
				return svc.GetVote(ctx, proposalId, voter)
			})
		},
	}
	showCmd.Flags().StringVar(&showProposal, "proposal", "", "proposal id")
	showCmd.Flags().StringVar(&voter, "voter", "", "voter identity")
	_ = showCmd.MarkFlagRequired("proposal")
	_ = showCmd.MarkFlagRequired("voter")

	var listProposal string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the votes cast on a proposal",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				proposalId, err := parseIdArg("proposal", listProposal)
				if err != nil {
					return nil, err
				}
				return svc.ListVotes(ctx, proposalId)
			})
		},
	}
	listCmd.Flags().StringVar(&listProposal, "proposal", "", "proposal id")
	_ = listCmd.MarkFlagRequired("proposal")
	cmd.AddCommand(castCmd, showCmd, listCmd)
	return cmd
}

func creditsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Grant and inspect voter credits",
	}
	var caller, dao, voter string
	var amount uint64
	grantCmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant credits to a voter",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				daoId, err := parseIdArg("DAO", dao)
				if err != nil {
					return nil, err
				}
				balance, err := svc.GrantCredits(ctx, caller, daoId, voter, amount)
				if err != nil {
					return nil, err
				}
				return api.GrantCreditsResponse{
					DaoId:   daoId.String(),
					Voter:   voter,
					Balance: balance,
				}, nil
			})
		},
	}
	grantCmd.Flags().StringVar(&caller, "caller", "", "identity of the DAO admin")
	grantCmd.Flags().StringVar(&dao, "dao", "", "DAO id")
	grantCmd.Flags().StringVar(&voter, "voter", "", "voter identity")
	grantCmd.Flags().Uint64Var(&amount, "amount", 0, "credits to grant")
	for _, name := range []string{"caller", "dao", "voter", "amount"} {
		_ = grantCmd.MarkFlagRequired(name)
	}

	var showDao, showVoter string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show a voter's credit balance",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				daoId, err := parseIdArg("DAO", showDao)
				if err != nil {
					return nil, err
				}
				return svc.GetCredits(ctx, daoId, showVoter)
			})
		},
	}
	showCmd.Flags().StringVar(&showDao, "dao", "", "DAO id")
	showCmd.Flags().StringVar(&showVoter, "voter", "", "voter identity")
	_ = showCmd.MarkFlagRequired("dao")
	_ = showCmd.MarkFlagRequired("voter")
	cmd.AddCommand(grantCmd, showCmd)
	return cmd
}

func tallyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tally ID",
		Short: "Show the running tally of a proposal",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				proposalId, err := parseIdArg("proposal", args[0])
				if err != nil {
					return nil, err
				}
				return svc.ReadTally(ctx, proposalId)
			})
		},
	}
}

func auditCommand() *cobra.Command {
	var dao string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check a DAO's votes, receipts, tallies and credits for consistency",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			runLocal(cmd, func(ctx context.Context, svc *governance.Service) (any, error) {
				daoId, err := parseIdArg("DAO", dao)
				if err != nil {
					return nil, err
				}
				report, err := svc.Audit(ctx, daoId)
				if err != nil {
					return nil, err
				}
				if !report.Ok() {
					printResult(report)
					return nil, fmt.Errorf(
						"audit found %d mismatches",
						len(report.Mismatches),
					)
				}
				return report, nil
			})
		},
	}
	cmd.Flags().StringVar(&dao, "dao", "", "DAO id")
	_ = cmd.MarkFlagRequired("dao")
	return cmd
}
