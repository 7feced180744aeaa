package models

func (d Directory) QueueByName(displayName string) (Queue, bool) {
	for _, q := range d.Queues {
		if q.DisplayName == displayName {
			return q, true
		}
	}
	return Queue{}, false
}

// AssigneesFor returns the names of assignees serving the queue with the given
// display name.
func (d Directory) AssigneesFor(queueName string) []string {
	q, ok := d.QueueByName(queueName)
	if !ok {
		return nil
	}
	var out []string
	for _, a := range d.Assignees {
		for _, id := range a.Queues {
			if id == q.QueueID {
				out = append(out, a.Name)
				break
			}
		}
	}
	return out
}

func (d Directory) HasPriority(p string) bool {
	return contains(d.Priorities, p)
}

func (d Directory) HasOverrideReason(r string) bool {
	return contains(d.OverrideReasons, r)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
