/*
Gramrepl starts an interactive grammar-masking session.

It reads in a grammar definition file and drives a gramlock.Session with the
built-in 127-id fixture tokenizer (internal/gram/fixture), one line of input
at a time: each line is encoded into vocabulary token ids, fed to the session
one id at a time, and after each one the currently-legal ids (and whether EOS
is allowed) are printed. This is a debugging aid for grammar authors, not a
production decoding loop — a real host supplies its own oracle.Oracle over
its own tokenizer and scores tensor.

Usage:

	gramrepl [flags]

The flags are:

	-v, --version
		Give the current version and then exit.

	-g, --grammar FILE
		Use the provided grammar definition file. Defaults to "grammar.txt"
		in the current working directory.

	-d, --direct
	    Force reading directly from the console as opposed to using GNU
		readline based routines for reading input even if launched in a tty.

Once a session has started, each line typed is tokenized and fed to the
session. Type "QUIT" to exit.
*/
package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/dekarrin/gramlock"
	"github.com/dekarrin/gramlock/internal/gram/fixture"
	"github.com/dekarrin/gramlock/internal/gramerr"
	"github.com/dekarrin/gramlock/internal/input"
	"github.com/dekarrin/gramlock/internal/version"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitSessionError indicates an unsuccessful program execution due to a
	// problem during the REPL session.
	ExitSessionError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue initializing the session.
	ExitInitError
)

var (
	returnCode  int     = ExitSuccess
	flagVersion *bool   = pflag.BoolP("version", "v", false, "Gives the version info")
	grammarFile *string = pflag.StringP("grammar", "g", "grammar.txt", "The grammar definition file to load")
	forceDirect *bool   = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	definition, err := os.ReadFile(*grammarFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	tok := fixture.NewTokenizer()
	sess, err := gramlock.New(tok, string(definition))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	reader, err := newReader(*forceDirect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	defer reader.Close()

	if err := runUntilQuit(sess, tok, reader); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitSessionError
		return
	}
}

type lineReader interface {
	ReadCommand() (string, error)
	Close() error
}

func newReader(forceDirect bool) (lineReader, error) {
	if forceDirect || !isTTY(os.Stdin) {
		return input.NewDirectReader(os.Stdin), nil
	}
	return input.NewInteractiveReader()
}

// allowedTable renders the token ids left unmasked in scores as a wrapped
// table, the same rosed.Edit/InsertTableOpts idiom the teacher lineage uses
// for its own console debug tables.
func allowedTable(tok *fixture.Tokenizer, scores []float64) string {
	data := [][]string{{"ID", "Token"}}
	for id, score := range scores {
		if math.IsInf(score, -1) {
			continue
		}
		data = append(data, []string{fmt.Sprintf("%d", id), tok.Decode(id)})
	}

	tableOpts := rosed.Options{
		TableHeaders:             true,
		NoTrailingLineSeparators: true,
	}
	return rosed.Edit("allowed tokens:").
		InsertTableOpts(1, data, 80, tableOpts).
		String()
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func runUntilQuit(sess *gramlock.Session, tok *fixture.Tokenizer, reader lineReader) error {
	for {
		line, err := reader.ReadCommand()
		if err != nil {
			return nil
		}
		if strings.EqualFold(strings.TrimSpace(line), "QUIT") {
			return nil
		}

		for _, id := range tok.Encode(line) {
			scores := make([]float64, tok.VocabSize())
			for i := range scores {
				scores[i] = 1
			}
			sess.MaskScores(scores)
			allowEOS := !math.IsInf(scores[tok.EOSID()], -1)
			fmt.Printf("feeding %d (%q); allow_eos=%v\n", id, tok.Decode(id), allowEOS)
			fmt.Println(allowedTable(tok, scores))

			if err := sess.Advance(id); err != nil {
				var genErr *gramerr.GenerationError
				if errors.As(err, &genErr) {
					logrus.WithFields(logrus.Fields{
						"token_id": genErr.TokenID,
						"rule":     genErr.Rule,
					}).Warn("sampled token rejected by grammar; session forced into EOS-only state")
				}
				fmt.Fprintf(os.Stderr, "REJECTED: %s\n", err.Error())
			}
		}

		if sess.Done() {
			fmt.Println("grammar satisfied; further input only accepted as EOS")
		}
	}
}
