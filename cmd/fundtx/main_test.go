package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/go-elements-funding/coinselect"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitFunding, exitCode(fmt.Errorf("asset x: %w", coinselect.ErrFunding)))
	assert.Equal(t, exitInvalidRequest, exitCode(fmt.Errorf("%w: bad", coinselect.ErrInvalidRequest)))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}

func testParser(t *testing.T) *flags.Parser {
	parser, err := newParser(&app{ctx: context.Background()})
	require.NoError(t, err)
	return parser
}

func testEnv(t *testing.T) {
	t.Setenv("FUNDTX_DATADIR", t.TempDir())
	t.Setenv("FUNDTX_NETWORK", "regtest")
}

func TestParserCommands(t *testing.T) {
	parser := testParser(t)
	for _, name := range []string{"sync", "coins", "resolve", "unlock"} {
		assert.NotNil(t, parser.Find(name), name)
	}
}

func TestResolveNeedsRequest(t *testing.T) {
	testEnv(t)
	_, err := testParser(t).ParseArgs([]string{"resolve"})
	var flagErr *flags.Error
	require.True(t, errors.As(err, &flagErr))
	assert.Equal(t, flags.ErrRequired, flagErr.Type)
}

func TestStoreCommands(t *testing.T) {
	testEnv(t)
	run := func(args ...string) error {
		_, err := testParser(t).ParseArgs(args)
		return err
	}

	require.NoError(t, run("coins"))
	require.NoError(t, run("coins", "--locked"))
	require.NoError(t, run("unlock", "--all"))
	require.Error(t, run("unlock"))
	require.Error(t, run("unlock", "nope"))
	require.Error(t, run("coins", "--asset", "zz"))
}
