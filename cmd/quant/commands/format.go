package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wonny/clusterfolio/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const separatorWidth = 59

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("─", separatorWidth))
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("═", separatorWidth))
}

// PrintHeader prints a titled block
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  %s\n", title)
	PrintSeparator(w)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, message string) {
	fmt.Fprintf(w, "ℹ️  %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row (마지막 열은 패딩 없음)
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		if i == len(values)-1 {
			fmt.Fprint(w, val)
			break
		}
		fmt.Fprintf(w, "%-*s  ", widths[i], val)
	}
	fmt.Fprintln(w)
}

// PrintPortfolios prints one row per community record
func PrintPortfolios(w io.Writer, result *contracts.ConstructResult) {
	widths := []int{9, 6, 40}
	PrintTableHeader(w, []string{"community", "size", "selected"}, widths)
	for _, p := range result.Portfolios {
		PrintTableRow(w, []string{strconv.Itoa(p.CommunityIndex), strconv.Itoa(p.Size), p.Community}, widths)
	}
}

// PrintResultSummary prints run-level figures
func PrintResultSummary(w io.Writer, result *contracts.ConstructResult) {
	p := result.Params
	PrintKeyValue(w, "Run ID", result.RunID, 12)
	PrintKeyValue(w, "Stocks", strconv.Itoa(result.NumStocks), 12)
	PrintKeyValue(w, "Communities", strconv.Itoa(result.NumCommunities), 12)
	PrintKeyValue(w, "Window", fmt.Sprintf("%d days", p.NTradingDaysBack), 12)
	PrintKeyValue(w, "Measure", string(p.CorrelationMeasure), 12)
	PrintKeyValue(w, "Quality", fmt.Sprintf("%s γ=%g → %.4f", p.QualityFunction, p.ResolutionParameter, result.Quality), 12)
	PrintKeyValue(w, "Modularity", fmt.Sprintf("%.4f", result.Modularity), 12)
	PrintKeyValue(w, "Duration", fmt.Sprintf("%dms", result.DurationMs), 12)
}
