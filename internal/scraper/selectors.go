package scraper

import "github.com/rroethle7474/timehealer-api/internal/locator"

// X.com DOM selectors. These are isolated here because X changes its DOM
// frequently; when a step breaks, extend the candidate list for that step
// instead of branching code.

const (
	// Post content
	TweetArticle = `article[data-testid="tweet"]`
	TweetText    = `[data-testid="tweetText"]`
	TweetAuthor  = `[data-testid="User-Name"]`
	TweetAnchor  = `a[data-testid="tweetText"]`

	// Search and navigation
	SearchInput       = `[data-testid="SearchBox_Search_Input"]`
	ChannelTimeline   = `[data-testid="ScrollSnap-List"]`
	ChannelEmptyState = `[data-testid="emptyState"]`
	ChannelMarkers    = ChannelTimeline + `, ` + ChannelEmptyState

	// Login flow
	LoginButton       = `[data-testid="LoginForm_Login_Button"]`
	AccountSwitcher   = `[data-testid="SideNav_AccountSwitcher_Button"]`
	OptionalStepInput = `input[data-testid="ocfEnterTextTextInput"]`
)

var usernameCandidates = []locator.Candidate{
	locator.CSS(`input[name='text'][autocomplete='username']`),
	locator.CSS(`input.r-30o5oe.r-1dz5y72.r-13qz1uu`),
	locator.XPath(`//input[@autocapitalize='sentences' and @autocomplete='username']`),
	locator.CSS(`input[type='text'][dir='auto']`),
}

var passwordCandidates = []locator.Candidate{
	locator.CSS(`input[name='password'][type='password']`),
	locator.CSS(`input[autocomplete='current-password']`),
	locator.XPath(`//input[@type='password' and contains(@class, 'r-30o5oe')]`),
}

var nextButtonCandidates = []locator.Candidate{
	locator.XPath(`//button[@role='button']//span[contains(text(), 'Next')]`),
}

var optionalStepCandidates = []locator.Candidate{
	locator.XPath(`//span[contains(text(), 'Enter your phone number or username')]`),
}

var searchInputCandidates = []locator.Candidate{
	locator.CSS(SearchInput),
}

var latestTabCandidates = []locator.Candidate{
	locator.XPath(`//span[text()='Latest']`),
	locator.XPath(`//span[contains(text(),'Latest')]`),
	locator.XPath(`//*[@role='tab']//span[text()='Latest']`),
}
