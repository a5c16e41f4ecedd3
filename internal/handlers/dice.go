package handlers

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

const rollUsage = "Usage: /roll XdY (e.g. /roll 2d6)"

// Roll parses a dice expression like "2d6" and rolls it. Malformed input
// gets the usage string back; dice rolling is chatter, not an API error.
func Roll(arg string) string {
	numStr, sidesStr, ok := strings.Cut(strings.TrimSpace(arg), "d")
	if !ok {
		return rollUsage
	}

	num, err := strconv.Atoi(numStr)
	if err != nil || num < 1 || num > 100 {
		return rollUsage
	}
	sides, err := strconv.Atoi(sidesStr)
	if err != nil || sides < 1 || sides > 1000 {
		return rollUsage
	}

	rolls := make([]int, num)
	total := 0
	for i := range rolls {
		rolls[i] = rand.Intn(sides) + 1
		total += rolls[i]
	}
	sort.Ints(rolls)

	if num == 1 {
		return fmt.Sprintf("Rolled: %d", rolls[0])
	}

	parts := make([]string, num)
	for i, r := range rolls {
		parts[i] = strconv.Itoa(r)
	}
	return fmt.Sprintf("Rolled: %s, total: %d", strings.Join(parts, ", "), total)
}
