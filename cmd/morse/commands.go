package main

import (
	"fmt"
	"io"
	"morse-lab/audio"
	"morse-lab/auth"
	"morse-lab/domain"
	"morse-lab/morse"
	"morse-lab/repositories"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var noColor bool
	root := &cobra.Command{
		Use:           "morse",
		Short:         "Morse toolbox of morse-lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.Disable()
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	root.AddCommand(encodeCmd(), decodeCmd(), tableCmd(), renderCmd(), tokenCmd(), archiveCmd())
	return root
}

func encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <text>",
		Short: "Translate text to Morse",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), morse.Encode(strings.Join(args, " ")))
			return err
		},
	}
}

func decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <code>",
		Short: "Translate Morse back to text",
		Long: `Translate Morse back to text. Letters are separated by spaces and
words by "/". Normalized Morse (with "_" gaps) is accepted too.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), morse.Decode(strings.Join(args, " ")))
			return err
		},
	}
}

func tableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the alphabet",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.New(color.FgGreen, color.OpBold).Render("  ====== Morse alphabet ======"))

			table := newTable(out, "Char", "Code")
			for _, e := range morse.Entries() {
				char := string(e.Char)
				if e.Char == ' ' {
					char = "space"
				}
				table.Append([]string{char, e.Code})
			}
			table.Render()
			return nil
		},
	}
}

func renderCmd() *cobra.Command {
	var (
		output     string
		raw        bool
		wpm        int
		floor      int
		frequency  float64
		sampleRate int
	)
	cmd := &cobra.Command{
		Use:   "render <text>",
		Short: "Synthesize text as Morse audio",
		Long: `Synthesize text as Morse audio, stereo 16-bit PCM.

Example:
  morse render -o cq.wav --wpm 20 "cq cq de ae2gcy"
  morse render --raw -o - sos | aplay -f S16_LE -c 2 -r 48000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("output file is required, use -o flag")
			}
			src := audio.NewFrameSource(sampleRate)
			defer src.Close()
			code := morse.NewScheduler(floor).EnqueueText(src, strings.Join(args, " "), wpm, frequency)

			if raw {
				w, closeFn, err := openOutput(cmd, output)
				if err != nil {
					return err
				}
				defer closeFn()
				frames, err := audio.WriteRaw(w, src)
				if err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s (%d frames, %v)\n", code, frames, time.Duration(frames)*audio.FrameDuration)
				return nil
			}

			if output == "-" {
				return fmt.Errorf("WAV needs a seekable file, use --raw for stdout")
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := audio.WriteWAV(f, src); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), code)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file ("-" for stdout with --raw)`)
	cmd.Flags().BoolVar(&raw, "raw", false, "write raw interleaved PCM instead of WAV")
	cmd.Flags().IntVar(&wpm, "wpm", morse.DefaultWPM, "words per minute")
	cmd.Flags().IntVar(&floor, "floor", morse.DefaultWPMFloor, "minimum WPM used for timing")
	cmd.Flags().Float64Var(&frequency, "frequency", 600, "tone frequency in Hz")
	cmd.Flags().IntVar(&sampleRate, "rate", 48000, "sample rate in Hz")
	return cmd
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func tokenCmd() *cobra.Command {
	var (
		realm, user, secret string
		ttl                 time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a gateway token for an identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("secret is required, use --secret or AUTH_SECRET")
			}
			id, err := domain.NewIdentity(realm, user)
			if err != nil {
				return err
			}
			token, err := auth.NewSigner(secret, ttl).GenerateToken(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "callsign %s, valid %v\n", id.Callsign(), ttl)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&realm, "realm", "", "realm id (digits)")
	cmd.Flags().StringVar(&user, "user", "", "user id (digits)")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("AUTH_SECRET"), "signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("realm")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func archiveCmd() *cobra.Command {
	var (
		path, room, cursor string
		limit              int
	)
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List archived transmissions of a room, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openArchive(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer db.Close()

			repo := repositories.NewTransmissionRepository(db, logs.GetLoggerFromString("ERROR"), &limit)
			var from *string
			if cursor != "" {
				from = &cursor
			}
			transmissions, next, err := repo.GetTransmissions(room, from)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.New(color.FgGreen, color.OpBold).Render("  ====== "+room+" ======"))
			table := newTable(out, "Time", "Callsign", "WPM", "Morse", "Text")
			for _, tx := range transmissions {
				table.Append([]string{
					tx.At.Format("15:04:05"),
					tx.Callsign,
					fmt.Sprint(tx.WPM),
					tx.Morse,
					morse.Decode(tx.Morse),
				})
			}
			table.Render()
			if next != nil && len(transmissions) == limit {
				fmt.Fprintf(out, "next: --cursor %s\n", *next)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "db", database.DefaultPath, "path to badger DB")
	cmd.Flags().StringVar(&room, "room", "", "room name")
	cmd.Flags().StringVar(&cursor, "cursor", "", "resume after this key")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

// openArchive opens the database read-only; the server may hold the lock.
func openArchive(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
