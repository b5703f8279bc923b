/*
	Project: Mahudhurio - classroom attendance taking
	Target: Universities & École secondaires
*/
package mahudhurio

/*
TODO: admin: upload CSV roster to bulk create students via API
TODO: persist in-flight sessions (survive restart): sessions live in memory only for now

------------------------------------ Version X ----------------------------------------
TODO: per-subject attendance records (one record per class per subject per day)
TODO: scheduled weekly summary email to each teacher
TODO: Progressive Web App: for usage in low network areas
*/
