// Package report renders the warning summary a run surfaces to
// whoever invoked it: method breakdown, per-store quota status, and
// residual conflicts. Unresolved submissions and conflicts are a
// warning here, never a crash.
package report

import (
	"fmt"
	"strings"

	"github.com/storematch/internal/engine"
	"github.com/storematch/internal/store"
)

// RenderSummary produces the plain-text run summary.
func RenderSummary(res *engine.Result, directory *store.Directory) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Resolution run %s ===\n\n", res.RunID)

	resolved := 0
	methodCounts := make(map[engine.Method]int)
	for _, s := range res.Submissions {
		methodCounts[s.Method]++
		if s.Resolved() {
			resolved++
		}
	}

	fmt.Fprintf(&b, "Submissions: %d total, %d resolved, %d unresolved\n",
		len(res.Submissions), resolved, len(res.Submissions)-resolved)
	fmt.Fprintf(&b, "Pairing links formed: %d\n\n", len(res.Pairings))

	fmt.Fprintf(&b, "%-14s | %5s\n", "Method", "Count")
	b.WriteString("---------------|------\n")
	for _, m := range []engine.Method{
		engine.MethodGeo, engine.MethodText, engine.MethodTemporalPair,
		engine.MethodQuotaFallback, engine.MethodUnresolved,
	} {
		fmt.Fprintf(&b, "%-14s | %5d\n", m, methodCounts[m])
	}

	b.WriteString("\nStore | Name                 | Form        | Expected | Actual\n")
	b.WriteString("------|----------------------|-------------|----------|-------\n")
	counts := countByStoreForm(res)
	for _, rec := range directory.Stores() {
		expOp, expSec := directory.ExpectedQuota(rec.ID)
		fmt.Fprintf(&b, "%5d | %-20s | %-11s | %8d | %6d\n",
			rec.ID, rec.Name, engine.FormOperational, expOp, counts[storeForm{rec.ID, engine.FormOperational}])
		fmt.Fprintf(&b, "%5d | %-20s | %-11s | %8d | %6d\n",
			rec.ID, rec.Name, engine.FormSecurity, expSec, counts[storeForm{rec.ID, engine.FormSecurity}])
	}

	if len(res.Conflicts) > 0 {
		fmt.Fprintf(&b, "\nResidual quota conflicts: %d\n", len(res.Conflicts))
		for _, c := range res.Conflicts {
			fmt.Fprintf(&b, "  store %d %s: expected %d, actual %d\n",
				c.StoreID, c.FormType, c.Expected, c.Actual)
		}
	}

	unresolvedCount := len(res.Submissions) - resolved
	if unresolvedCount > 0 || len(res.Conflicts) > 0 {
		fmt.Fprintf(&b, "\nWARNING: %d unresolved submissions, %d residual conflicts need manual review\n",
			unresolvedCount, len(res.Conflicts))
	}

	return b.String()
}

type storeForm struct {
	storeID int
	form    engine.FormType
}

func countByStoreForm(res *engine.Result) map[storeForm]int {
	counts := make(map[storeForm]int)
	for _, s := range res.Submissions {
		if s.Resolved() {
			counts[storeForm{s.StoreID, s.FormType}]++
		}
	}
	return counts
}
