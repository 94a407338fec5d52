package solesub

import (
	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Credential is re-exported from credential package.
type Credential = credential.Credential

// Re-export Money constructors
var (
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	Zero = types.Zero
)
