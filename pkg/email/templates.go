package email

import "html/template"

const subscriptionStartedTemplate = `
<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome to {{.PlanName}}, {{.Name}}!</h2>
  <p>Your subscription is now active. Here's what you signed up for:</p>
  <ul>
    <li>Plan: {{.PlanName}}</li>
    <li>Price: {{printf "%.2f" .Price}} {{.Currency}} / {{.Interval}}</li>
    <li>Renews/expires: {{.ExpiresAt.Format "January 2, 2006"}}</li>
  </ul>
  <p>You now have unlimited journal entries, unlimited goals and full access to
  insights, custom prompts, weekly digests, export and the community.</p>
  <p>— The Hope Log team</p>
</div>`

const subscriptionCancelledTemplate = `
<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Sorry to see you go, {{.Name}}</h2>
  <p>Your {{.PlanName}} subscription has been cancelled.</p>
  <p>You'll keep Pro access until {{.ExpiresAt.Format "January 2, 2006"}}, after
  which your account moves back to the free plan.</p>
  <p>— The Hope Log team</p>
</div>`

const subscriptionExpiryWarningTemplate = `
<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Hi {{.Name}},</h2>
  <p>Your {{.PlanName}} subscription expires in {{.DaysLeft}} days, on
  {{.ExpiryDate.Format "January 2, 2006"}}.</p>
  <p>Renew from your subscription page to keep unlimited journaling and your
  Pro features.</p>
  <p>— The Hope Log team</p>
</div>`

func loadTemplates() (*template.Template, error) {
	t := template.New("email")

	var err error
	if t, err = t.New("subscription_started").Parse(subscriptionStartedTemplate); err != nil {
		return nil, err
	}
	if t, err = t.New("subscription_cancelled").Parse(subscriptionCancelledTemplate); err != nil {
		return nil, err
	}
	if t, err = t.New("subscription_expiry_warning").Parse(subscriptionExpiryWarningTemplate); err != nil {
		return nil, err
	}
	return t, nil
}
