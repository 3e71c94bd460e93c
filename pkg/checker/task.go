package checker

import "fmt"

const taskTemplate = `Task: analyse apartment prices on a real-estate developer's website.

1. Visit the website: %s

2. Goal: find concrete prices of individual apartments in the current offer.

3. Price acceptance criteria:
   - ACCEPT exact prices of specific apartments (e.g. '450 000 PLN', '500 000 złotych').
   - DO NOT accept price ranges or "starting from" prices (e.g. 'prices from 500 000 PLN', 'od 500 000 zł').
   - DO NOT accept calls to contact the developer instead of a price (e.g. 'ask for price', 'send an inquiry', 'contact us').

4. Where to look for prices:
   - in links to specific offers
   - in tables listing the offer
   - in apartment descriptions
   - in price lists

5. Answer format, use exactly one of these sentences as the final answer:
   - If concrete prices were found: '%s'
   - If no concrete prices were found: '%s'

Note: focus only on concrete, explicitly published apartment prices.`

// BuildTask returns the instruction given to the agent for url.
func BuildTask(url string) string {
	return fmt.Sprintf(taskTemplate, url, AvailableLabel, UnavailableLabel)
}
