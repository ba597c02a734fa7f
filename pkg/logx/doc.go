// Package logx configures marqueed's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - A separate fallback sink (rate limited) that records only
//     display-controller-offline events
package logx
