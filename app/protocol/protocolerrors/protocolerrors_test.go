package protocolerrors

import (
	"testing"

	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestConvertToBanningProtocolErrorIfRuleError(t *testing.T) {
	ruleErr := errors.Wrap(ruleerrors.ErrDuplicateBlock, "wrapped")
	converted := ConvertToBanningProtocolErrorIfRuleError(ruleErr, "invalid block %d", 1)

	isProtocolError, shouldBan := IsProtocolError(converted)
	require.True(t, isProtocolError)
	require.True(t, shouldBan)
	require.True(t, errors.Is(converted, ruleerrors.ErrDuplicateBlock))

	plainErr := errors.New("database failure")
	require.Equal(t, plainErr, ConvertToBanningProtocolErrorIfRuleError(plainErr, "ignored"))
	isProtocolError, _ = IsProtocolError(plainErr)
	require.False(t, isProtocolError)

	isProtocolError, shouldBan = IsProtocolError(errors.Wrap(New(false, "timeout"), "wrapped"))
	require.True(t, isProtocolError)
	require.False(t, shouldBan)
}
