// Package cli is the interactive terminal front end.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/unit-converter/internal/core/domain"
	"github.com/kirillkom/unit-converter/internal/core/ports"
)

type Shell struct {
	converter ports.UnitConverter
	in        *bufio.Scanner
	out       io.Writer
	precision int
}

func NewShell(converter ports.UnitConverter, in io.Reader, out io.Writer, precision int) *Shell {
	return &Shell{
		converter: converter,
		in:        bufio.NewScanner(in),
		out:       out,
		precision: precision,
	}
}

// Run loops until the user picks 0, input ends or ctx is cancelled. Bad
// input is reported and the loop continues.
func (s *Shell) Run(ctx context.Context) error {
	s.println("ENGINEERING UNIT CONVERTER")
	s.println(strings.Repeat("-", 48))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		s.printMenu()

		choice, ok := s.prompt("\nSelect a category number (0 to exit): ")
		if !ok || strings.TrimSpace(choice) == "0" {
			s.println("Goodbye!")
			return s.in.Err()
		}

		category, err := s.converter.SelectCategory(ctx, choice)
		if err != nil {
			s.printError(err)
			continue
		}
		units, err := s.converter.Units(category)
		if err != nil {
			s.printError(err)
			continue
		}
		symbols := make([]string, 0, len(units))
		for _, u := range units {
			symbols = append(symbols, u.Symbol)
		}
		fmt.Fprintf(s.out, "\nAvailable units for %s: %s\n", category.Label(), strings.Join(symbols, ", "))

		value, ok := s.prompt(fmt.Sprintf("Enter value to convert (%s): ", category))
		if !ok {
			break
		}
		from, ok := s.prompt("From unit: ")
		if !ok {
			break
		}
		to, ok := s.prompt("To unit: ")
		if !ok {
			break
		}

		res, err := s.converter.Convert(ctx, domain.ConversionInput{
			Category: string(category),
			Value:    value,
			FromUnit: from,
			ToUnit:   to,
		})
		if err != nil {
			s.printError(err)
			continue
		}
		fmt.Fprintf(s.out, "%s %s = %s %s\n", strings.TrimSpace(value), strings.TrimSpace(from), res.Format(s.precision), res.Unit)
	}

	s.println("Goodbye!")
	return s.in.Err()
}

func (s *Shell) printMenu() {
	s.println("\nAvailable categories:")
	for i, c := range s.converter.Categories() {
		fmt.Fprintf(s.out, "%d. %s\n", i+1, c.Label())
	}
	s.println("0. Exit")
}

func (s *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		fmt.Fprintln(s.out)
		return "", false
	}
	return s.in.Text(), true
}

func (s *Shell) printError(err error) {
	fmt.Fprintf(s.out, "Error: %s\n", domain.UserMessage(err))
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}
