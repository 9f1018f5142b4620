package occurrence

import "fmt"

func cacheKeyOccurrenceDetails(id string) string {
	return fmt.Sprintf("occurrence:%s", id)
}
