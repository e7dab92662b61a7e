package cli

import "fmt"

func BandwidthToStr(stat uint64) string {
	if stat == 0 {
		return "-"
	}

	unit := uint64(1000)
	if stat < unit {
		return fmt.Sprintf("%d B", stat)
	}
	div, exp := unit, 0
	for n := stat / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(stat)/float64(div), "kMGTPE"[exp])
}
