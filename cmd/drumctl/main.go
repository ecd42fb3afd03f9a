// Package main: drumctl, административная утилита Drum.
// Работает с той же базой и конфигурацией, что и сервис.
package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"serotonyl.ru/drum/internal/app"
	"serotonyl.ru/drum/internal/common"
	"serotonyl.ru/drum/internal/config"
	"serotonyl.ru/drum/internal/features/admission"
	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/features/karma"
	"serotonyl.ru/drum/internal/features/listing"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)

	cliApp := cli.App{
		Name:  "drumctl",
		Usage: "административные команды Drum",
	}
	cliApp.Commands = []*cli.Command{
		{
			Name:  "chambers",
			Usage: "палаты",
			Subcommands: []*cli.Command{
				{
					Name:  "create",
					Usage: "создать палату через допуск (имя свободно, баланс владельца)",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "name", Required: true},
						&cli.Int64Flag{Name: "owner", Required: true},
						&cli.StringFlag{Name: "display-name"},
						&cli.StringFlag{Name: "description", Required: true},
						&cli.StringFlag{Name: "min-thread", Value: "0.00"},
						&cli.StringFlag{Name: "min-comment", Value: "0.00"},
					},
					Action: runChambersCreate,
				},
				{
					Name:   "check",
					Usage:  "проверить цепочки автомодерации всех палат по текущему реестру",
					Action: runChambersCheck,
				},
				{
					Name:  "automod",
					Usage: "задать цепочку автомодерации палаты",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "name", Required: true},
						&cli.StringSliceFlag{Name: "slot", Usage: "слот вида a=caps:0.50, пустой оценщик выключает слот (a=)"},
						&cli.BoolFlag{Name: "can-fine"},
						&cli.StringFlag{Name: "max-fine", Value: "0.00"},
					},
					Action: runChambersAutomod,
				},
			},
		},
		{
			Name:  "karma",
			Usage: "карма",
			Subcommands: []*cli.Command{
				{
					Name:   "recount",
					Usage:  "пересчитать карму по текущим голосам",
					Action: runKarmaRecount,
				},
				{
					Name:  "show",
					Usage: "карма пользователя и последние изменения",
					Flags: []cli.Flag{
						&cli.Int64Flag{Name: "user", Required: true},
						&cli.IntFlag{Name: "limit", Value: 10},
					},
					Action: runKarmaShow,
				},
			},
		},
		{
			Name:  "profile",
			Usage: "профили",
			Subcommands: []*cli.Command{
				{
					Name:  "ensure",
					Usage: "создать профиль со стартовым балансом, если его нет",
					Flags: []cli.Flag{
						&cli.Int64Flag{Name: "user", Required: true},
						&cli.StringFlag{Name: "username", Required: true},
					},
					Action: runProfileEnsure,
				},
			},
		},
		{
			Name:  "balance",
			Usage: "балансы",
			Subcommands: []*cli.Command{
				{
					Name:  "grant",
					Usage: "начислить средства",
					Flags: []cli.Flag{
						&cli.Int64Flag{Name: "user", Required: true},
						&cli.StringFlag{Name: "amount", Required: true},
						&cli.StringFlag{Name: "reason", Value: "admin"},
					},
					Action: runBalanceGrant,
				},
				{
					Name:  "pay",
					Usage: "перевод между пользователями",
					Flags: []cli.Flag{
						&cli.Int64Flag{Name: "from", Required: true},
						&cli.Int64Flag{Name: "to", Required: true},
						&cli.StringFlag{Name: "amount", Required: true, Usage: "сумма, например 1.50"},
					},
					Action: runBalancePay,
				},
				{
					Name:  "fine",
					Usage: "списать штраф",
					Flags: []cli.Flag{
						&cli.Int64Flag{Name: "user", Required: true},
						&cli.StringFlag{Name: "amount", Required: true},
						&cli.StringFlag{Name: "reason", Value: "automod"},
					},
					Action: runBalanceFine,
				},
				{
					Name:  "history",
					Usage: "последние транзакции пользователя",
					Flags: []cli.Flag{
						&cli.Int64Flag{Name: "user", Required: true},
					},
					Action: runBalanceHistory,
				},
			},
		},
		{
			Name:  "threads",
			Usage: "треды",
			Subcommands: []*cli.Command{
				{
					Name:  "list",
					Usage: "лента тредов палаты",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "chamber"},
						&cli.BoolFlag{Name: "hot", Usage: "по горячести, иначе по дате"},
						&cli.IntFlag{Name: "page", Value: 1},
					},
					Action: runThreads,
				},
				{
					Name:  "submit",
					Usage: "опубликовать тред через допуск (лимит, дубликаты, автомодерация, баланс)",
					Flags: []cli.Flag{
						&cli.Int64Flag{Name: "user", Required: true},
						&cli.StringFlag{Name: "chamber", Required: true},
						&cli.StringFlag{Name: "title", Required: true},
						&cli.StringFlag{Name: "link"},
						&cli.StringFlag{Name: "description"},
					},
					Action: runThreadSubmit,
				},
			},
		},
		{
			Name:  "comments",
			Usage: "комментарии",
			Subcommands: []*cli.Command{
				{
					Name:  "list",
					Usage: "комментарии треда",
					Flags: []cli.Flag{
						&cli.Int64Flag{Name: "thread", Required: true},
						&cli.BoolFlag{Name: "best", Usage: "лучшие, иначе последние"},
						&cli.IntFlag{Name: "page", Value: 1},
					},
					Action: runComments,
				},
				{
					Name:  "submit",
					Usage: "опубликовать комментарий через допуск",
					Flags: []cli.Flag{
						&cli.Int64Flag{Name: "user", Required: true},
						&cli.Int64Flag{Name: "thread", Required: true},
						&cli.StringFlag{Name: "body", Required: true},
					},
					Action: runCommentSubmit,
				},
			},
		},
		{
			Name:  "vote",
			Usage: "проголосовать; повтор того же голоса отменяет его",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "user", Required: true},
				&cli.StringFlag{Name: "type", Value: string(karma.ContentThread), Usage: "thread, comment или chamber"},
				&cli.Int64Flag{Name: "id", Required: true},
				&cli.IntFlag{Name: "value", Value: 1, Usage: "1 или -1"},
			},
			Action: runVote,
		},
	}
	cliApp.RunAndExitOnError()
}

// withApp собирает приложение на время одной команды.
func withApp(cctx *cli.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := cctx.Context
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !common.IsMoney(d) {
		return decimal.Zero, fmt.Errorf("сумма %q: %w", s, common.ErrInvalidAmount)
	}
	return d, nil
}

// decisionOutput: текст для вывода и признак отказа. Detail печатается как есть.
func decisionOutput(d admission.Decision) (string, bool) {
	if !d.Accepted {
		return d.Detail, true
	}
	switch {
	case d.Thread != nil:
		return fmt.Sprintf("принято: тред #%d в '%s'", d.Thread.ID, d.Thread.Chamber), false
	case d.Comment != nil:
		return fmt.Sprintf("принято: комментарий #%d к треду #%d", d.Comment.ID, d.Comment.ThreadID), false
	case d.Chamber != nil:
		return fmt.Sprintf("принято: палата '%s'", d.Chamber.Name), false
	}
	return "принято", false
}

func printDecision(d admission.Decision) error {
	out, rejected := decisionOutput(d)
	if rejected {
		return cli.Exit(out, 1)
	}
	fmt.Println(out)
	return nil
}

func runChambersCreate(cctx *cli.Context) error {
	minThread, err := parseAmount(cctx.String("min-thread"))
	if err != nil {
		return err
	}
	minComment, err := parseAmount(cctx.String("min-comment"))
	if err != nil {
		return err
	}
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		d, err := a.Admission.CreateChamber(ctx, &chambers.Chamber{
			Name:              cctx.String("name"),
			DisplayName:       cctx.String("display-name"),
			Description:       cctx.String("description"),
			OwnerID:           cctx.Int64("owner"),
			MinThreadBalance:  minThread,
			MinCommentBalance: minComment,
		})
		if err != nil {
			return err
		}
		return printDecision(d)
	})
}

func runThreadSubmit(cctx *cli.Context) error {
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		d, err := a.Admission.SubmitThread(ctx, admission.ThreadDraft{
			AuthorID:    cctx.Int64("user"),
			Chamber:     cctx.String("chamber"),
			Title:       cctx.String("title"),
			Link:        cctx.String("link"),
			Description: cctx.String("description"),
		})
		if err != nil {
			return err
		}
		return printDecision(d)
	})
}

func runCommentSubmit(cctx *cli.Context) error {
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		d, err := a.Admission.SubmitComment(ctx, admission.CommentDraft{
			AuthorID: cctx.Int64("user"),
			ThreadID: cctx.Int64("thread"),
			Body:     cctx.String("body"),
		})
		if err != nil {
			return err
		}
		return printDecision(d)
	})
}

func runVote(cctx *cli.Context) error {
	ref := karma.ContentRef{Type: karma.ContentType(cctx.String("type")), ID: cctx.Int64("id")}
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		tr, err := a.Votes.Rate(ctx, cctx.Int64("user"), ref, cctx.Int("value"))
		if err != nil {
			return err
		}
		fmt.Printf("%s: голос %s, рейтинг %d\n", ref, tr.Kind, tr.Sum)
		return nil
	})
}

func runChambersCheck(cctx *cli.Context) error {
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		problems, err := a.Chambers.CheckAll(ctx)
		if err != nil {
			return err
		}
		if len(problems) == 0 {
			fmt.Println("все палаты в порядке")
			return nil
		}
		for _, name := range slices.Sorted(maps.Keys(problems)) {
			fmt.Printf("%s: %v\n", name, problems[name])
		}
		return cli.Exit(fmt.Sprintf("палат с ошибками: %d", len(problems)), 1)
	})
}

// parseSlot разбирает "a=caps:0.50".
func parseSlot(raw string) (int, chambers.AutomodSlot, error) {
	label, value, ok := strings.Cut(raw, "=")
	if !ok || len(label) != 1 || label[0] < 'a' || label[0] >= 'a'+chambers.SlotCount {
		return 0, chambers.AutomodSlot{}, fmt.Errorf("слот %q: ожидается <a-e>=<оценщик>:<вес>", raw)
	}
	idx := int(label[0] - 'a')
	if value == "" {
		return idx, chambers.AutomodSlot{}, nil
	}
	id, sev, ok := strings.Cut(value, ":")
	if !ok {
		return 0, chambers.AutomodSlot{}, fmt.Errorf("слот %q: нет веса", raw)
	}
	severity, err := decimal.NewFromString(sev)
	if err != nil {
		return 0, chambers.AutomodSlot{}, fmt.Errorf("слот %q: %w", raw, err)
	}
	return idx, chambers.AutomodSlot{EvaluatorID: id, Severity: severity}, nil
}

func runChambersAutomod(cctx *cli.Context) error {
	maxFine, err := parseAmount(cctx.String("max-fine"))
	if err != nil {
		return err
	}
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		ch, err := a.Chambers.Get(ctx, cctx.String("name"))
		if err != nil {
			return err
		}
		for _, raw := range cctx.StringSlice("slot") {
			idx, slot, err := parseSlot(raw)
			if err != nil {
				return err
			}
			ch.Slots[idx] = slot
		}
		ch.AutomodCanFine = cctx.Bool("can-fine")
		ch.MaxFine = maxFine
		if err := a.Chambers.SaveConfig(ctx, ch); err != nil {
			return err
		}
		for _, s := range ch.EnabledSlots() {
			fmt.Printf("%s: %s %s\n", s.Label(), s.EvaluatorID, s.Severity.StringFixed(2))
		}
		return nil
	})
}

func runKarmaRecount(cctx *cli.Context) error {
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		fixed, err := a.Karma.Recount(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("исправлено профилей: %d\n", fixed)
		return nil
	})
}

func runKarmaShow(cctx *cli.Context) error {
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		user := cctx.Int64("user")
		karma, err := a.Karma.GetKarma(ctx, user)
		if err != nil {
			return err
		}
		fmt.Printf("карма: %d\n", karma)
		entries, err := a.Karma.RecentLogs(ctx, user, cctx.Int("limit"))
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s | %+d | %s %s#%d от %d\n",
				common.FormatDateTime(e.CreatedAt), e.Points, e.EventKind, e.ContentType, e.ContentID, e.FromUserID)
		}
		return nil
	})
}

func runProfileEnsure(cctx *cli.Context) error {
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		p, err := a.Profiles.EnsureProfile(ctx, cctx.Int64("user"), cctx.String("username"))
		if err != nil {
			return err
		}
		fmt.Printf("%s (user_id=%d): баланс %s, карма %d\n", p.Username, p.UserID, common.FormatMoney(p.Balance), p.Karma)
		return nil
	})
}

func runBalanceGrant(cctx *cli.Context) error {
	amount, err := parseAmount(cctx.String("amount"))
	if err != nil {
		return err
	}
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		if err := a.Economy.Grant(ctx, cctx.Int64("user"), amount, cctx.String("reason")); err != nil {
			return err
		}
		fmt.Printf("начислено %s\n", common.FormatMoney(amount))
		return nil
	})
}

func runBalancePay(cctx *cli.Context) error {
	amount, err := parseAmount(cctx.String("amount"))
	if err != nil {
		return err
	}
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		if err := a.Economy.Transfer(ctx, cctx.Int64("from"), cctx.Int64("to"), amount); err != nil {
			return err
		}
		fmt.Printf("переведено %s\n", common.FormatMoney(amount))
		return nil
	})
}

func runBalanceFine(cctx *cli.Context) error {
	amount, err := parseAmount(cctx.String("amount"))
	if err != nil {
		return err
	}
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		user := cctx.Int64("user")
		if err := a.Economy.DebitFine(ctx, user, amount, cctx.String("reason")); err != nil {
			return err
		}
		balance, err := a.Economy.GetBalance(ctx, user)
		if err != nil {
			return err
		}
		fmt.Printf("штраф %s списан, баланс %s\n", common.FormatMoney(amount), common.FormatMoney(balance))
		return nil
	})
}

func runBalanceHistory(cctx *cli.Context) error {
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		history, err := a.Economy.GetTransactionHistory(ctx, cctx.Int64("user"))
		if err != nil {
			return err
		}
		fmt.Print(history)
		return nil
	})
}

func runComments(cctx *cli.Context) error {
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		page, err := a.Listing.Comments(ctx, listing.Query{
			ThreadID: cctx.Int64("thread"),
			ByScore:  cctx.Bool("best"),
			Page:     cctx.Int("page"),
		})
		if err != nil {
			return err
		}
		for _, s := range page.Items {
			c := s.Item
			fmt.Printf("#%d %s (%+d) %s\n", c.ID, common.FormatDateTime(c.SubmitDate), c.RatingSum, c.Body)
		}
		if page.HasNext {
			fmt.Printf("-- дальше: --page %d\n", page.Number+1)
		}
		return nil
	})
}

func runThreads(cctx *cli.Context) error {
	return withApp(cctx, func(ctx context.Context, a *app.App) error {
		page, err := a.Listing.Threads(ctx, listing.Query{
			Kind:    listing.KindThreads,
			Chamber: cctx.String("chamber"),
			ByScore: cctx.Bool("hot"),
			Page:    cctx.Int("page"),
		})
		if err != nil {
			return err
		}
		for _, s := range page.Items {
			t := s.Item
			fmt.Printf("%8.3f  #%d [%s] %s (%+d, %d комм.)\n", s.Score, t.ID, t.Chamber, t.Title, t.RatingSum, t.CommentsCount)
		}
		if page.HasNext {
			fmt.Printf("-- дальше: --page %d\n", page.Number+1)
		}
		return nil
	})
}
